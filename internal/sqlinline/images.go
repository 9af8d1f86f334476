package sqlinline

const QInsertGeneratedImage = `--sql 5b8de431-90af-47c2-8a15-f3cf20d9c6e7
insert into generated_images(id, user_id, prompt, image_url, model_used, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, now())
returning id, created_at;
`

const QSelectUserImages = `--sql c4a97f02-6e1d-4b38-b7aa-25d44cf0e819
select id, user_id, prompt, image_url, model_used, created_at
from generated_images
where user_id = $1::uuid
order by created_at desc
limit 100;
`
