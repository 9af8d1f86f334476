package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kompis/server/internal/domain"
	"kompis/server/internal/imaging"
	"kompis/server/internal/providers/image"
	"kompis/server/internal/providers/prompt"
	"kompis/server/internal/storage"
)

// Request is the caller's generation order, alive for one pipeline run.
type Request struct {
	UserID         string
	Prompt         string
	CharacterImage string
	CharacterID    string
}

// Result carries the successful outcome back to the handler. Note documents a
// tolerated degradation (skipped face swap, non-durable URL) and is informational.
type Result struct {
	ImageURL     string
	BodyImageURL string
	Prompt       string
	Model        string
	Note         string
}

// CompanionLookup reads stored companion attributes; nil means no context.
type CompanionLookup interface {
	GetAttributes(ctx context.Context, id string) *domain.Companion
}

// Analyzer extracts visual attributes from the reference image.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageDataURI string) (string, error)
}

// PromptEnricher folds prompt, companion context and attributes into one prompt.
type PromptEnricher interface {
	Enrich(ctx context.Context, req prompt.EnrichRequest) string
}

// FaceSwapper transfers the reference identity onto the generated image.
type FaceSwapper interface {
	SwapFaces(ctx context.Context, sourceB64, targetB64 string) (string, error)
	HasCredentials() bool
}

// TokenLedger charges and compensates the caller's balance.
type TokenLedger interface {
	Deduct(ctx context.Context, userID, requestID string, amount int, reason string) bool
	Refund(ctx context.Context, userID, requestID string, amount int, reason string)
}

// Recorder persists the relational record of a finished generation.
type Recorder interface {
	Insert(ctx context.Context, userID, prompt, imageURL, modelUsed string) (*domain.GeneratedImage, error)
}

// Options wires the pipeline's collaborators.
type Options struct {
	Companions CompanionLookup
	Analyzer   Analyzer
	Enricher   PromptEnricher
	Generator  image.Generator
	Swapper    FaceSwapper
	Ledger     TokenLedger
	Store      storage.Store
	Recorder   Recorder
	TokenCost  int
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Pipeline runs one generation request through its four stages in order:
// context collection, prompt enrichment, synthesis with provider fallback and
// face swap plus persistence. Only a synthesis failure is fatal; every other
// stage degrades. Exactly one token debit happens per attempted generation and
// at most one compensating refund.
type Pipeline struct {
	companions CompanionLookup
	analyzer   Analyzer
	enricher   PromptEnricher
	generator  image.Generator
	swapper    FaceSwapper
	ledger     TokenLedger
	store      storage.Store
	recorder   Recorder
	tokenCost  int
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewPipeline(opts Options) *Pipeline {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Pipeline{
		companions: opts.Companions,
		analyzer:   opts.Analyzer,
		enricher:   opts.Enricher,
		generator:  opts.Generator,
		swapper:    opts.Swapper,
		ledger:     opts.Ledger,
		store:      opts.Store,
		recorder:   opts.Recorder,
		tokenCost:  opts.TokenCost,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Run executes the pipeline for one request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.CharacterImage = strings.TrimSpace(req.CharacterImage)
	if req.Prompt == "" {
		return nil, domain.ErrPromptRequired
	}
	if req.CharacterImage == "" {
		return nil, domain.ErrImageRequired
	}

	requestID := uuid.NewString()
	logger := p.logger.With().Str("generation_id", requestID).Str("user_id", req.UserID).Logger()

	debited := false
	if p.ledger != nil && p.tokenCost > 0 {
		if !p.ledger.Deduct(ctx, req.UserID, requestID, p.tokenCost, "image_generation") {
			return nil, domain.ErrInsufficientTokens
		}
		debited = true
	}

	var companion *domain.Companion
	if req.CharacterID != "" && p.companions != nil {
		companion = p.companions.GetAttributes(ctx, req.CharacterID)
	}

	enriched := p.enrich(ctx, logger, req, companion)

	asset, err := p.generator.Generate(ctx, enriched)
	if err != nil {
		if debited {
			p.ledger.Refund(ctx, req.UserID, requestID, p.tokenCost, "generation_failed")
		}
		logger.Error().Err(err).Msg("image synthesis failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	finalData, swapped, note := p.swap(ctx, logger, req.CharacterImage, asset)
	result := &Result{Prompt: req.Prompt, Model: asset.Model, Note: note}
	if swapped && asset.URL != "" {
		// Swap applied: keep the provider-hosted body image reachable too.
		result.BodyImageURL = asset.URL
	}

	result.ImageURL = p.persist(ctx, logger, req.UserID, req.Prompt, asset, finalData, result)
	return result, nil
}

// enrich runs stage 2: vision extraction then prompt rewriting, both soft.
func (p *Pipeline) enrich(ctx context.Context, logger zerolog.Logger, req Request, companion *domain.Companion) string {
	var attributes string
	if p.analyzer != nil {
		dataURI, err := imaging.ToDataURI(ctx, p.httpClient, req.CharacterImage)
		if err != nil {
			logger.Warn().Err(err).Msg("reference image download failed, skipping extraction")
		} else {
			attributes, err = p.analyzer.AnalyzeImage(ctx, dataURI)
			if err != nil {
				logger.Warn().Err(err).Msg("vision extraction failed")
				attributes = ""
			}
		}
	}

	enrichReq := prompt.EnrichRequest{RawPrompt: req.Prompt, Companion: companion, Attributes: attributes}
	if p.enricher == nil {
		return prompt.ConcatPrompt(enrichReq)
	}
	return p.enricher.Enrich(ctx, enrichReq)
}

// swap runs the optional identity transfer. Missing credentials skip the
// stage silently; an actual failure keeps the pre-swap image and attaches a
// note to the response.
func (p *Pipeline) swap(ctx context.Context, logger zerolog.Logger, characterImage string, asset *image.Asset) (data []byte, swapped bool, note string) {
	if p.swapper == nil || !p.swapper.HasCredentials() {
		return asset.Data, false, ""
	}
	sourceB64, err := imaging.ToBase64(ctx, p.httpClient, characterImage)
	if err != nil {
		logger.Warn().Err(err).Msg("face swap source download failed")
		return asset.Data, false, "face swap unavailable"
	}
	targetB64, err := p.targetBase64(ctx, asset)
	if err != nil {
		logger.Warn().Err(err).Msg("face swap target preparation failed")
		return asset.Data, false, "face swap unavailable"
	}
	swappedB64, err := p.swapper.SwapFaces(ctx, sourceB64, targetB64)
	if err != nil {
		logger.Warn().Err(err).Msg("face swap failed, keeping original image")
		return asset.Data, false, "face swap unavailable"
	}
	decoded, err := base64.StdEncoding.DecodeString(swappedB64)
	if err != nil {
		logger.Warn().Err(err).Msg("face swap returned undecodable payload")
		return asset.Data, false, "face swap unavailable"
	}
	return decoded, true, ""
}

func (p *Pipeline) targetBase64(ctx context.Context, asset *image.Asset) (string, error) {
	if len(asset.Data) > 0 {
		return base64.StdEncoding.EncodeToString(asset.Data), nil
	}
	if asset.URL != "" {
		return imaging.ToBase64(ctx, p.httpClient, asset.URL)
	}
	return "", fmt.Errorf("no image payload to swap")
}

// persist runs stage 4: upload to the object store, then the relational row.
// Upload failure is a distinct, logged degradation: the caller still gets a
// working URL, just not a durable one.
func (p *Pipeline) persist(ctx context.Context, logger zerolog.Logger, userID, rawPrompt string, asset *image.Asset, finalData []byte, result *Result) string {
	format := asset.Format
	if format == "" {
		format = "image/jpeg"
	}

	finalURL := ""
	if p.store != nil && len(finalData) > 0 {
		key := fmt.Sprintf("%s/%s.jpg", userID, uuid.NewString())
		url, err := p.store.Upload(ctx, key, finalData, format)
		if err != nil {
			logger.Error().Err(err).Str("event", "storage_degraded").Msg("object store upload failed, returning non-durable url")
			if result.Note == "" {
				result.Note = "image stored at provider only"
			}
		} else {
			finalURL = url
		}
	}
	if finalURL == "" {
		if asset.URL != "" {
			finalURL = asset.URL
		} else {
			finalURL = imaging.EncodeDataURI(finalData, format)
		}
	}

	if p.recorder != nil {
		if _, err := p.recorder.Insert(ctx, userID, rawPrompt, finalURL, asset.Model); err != nil {
			logger.Error().Err(err).Msg("generation record insert failed")
		}
	}
	return finalURL
}
