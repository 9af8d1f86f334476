package sqlinline

const QDeductTokens = `--sql 9d2f61c8-14eb-4a07-bd93-6a88e0c51f2a
update users
set token_balance = token_balance - $2::int,
    updated_at = now()
where id = $1::uuid
  and token_balance >= $2::int
returning token_balance;
`

const QRefundTokens = `--sql 1e64b7aa-8c29-4f55-a0d1-47f9c3be8206
update users
set token_balance = token_balance + $2::int,
    updated_at = now()
where id = $1::uuid
returning token_balance;
`

const QInsertLedgerEntry = `--sql 83a05d9b-f271-4c6e-92b8-0ddc15ea74f3
insert into token_ledger(id, user_id, request_id, amount, direction, reason, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::int, $4::text, $5::text, now());
`
