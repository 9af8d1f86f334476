package sqlinline

const QSelectCompanion = `--sql 7f1c2b9e-3a54-4d1b-9c0e-8d2f6a71b344
select id, user_id, name, age, description, personality, body, ethnicity, relationship, created_at
from companions
where id = $1::uuid;
`
