package sqlinline

const QInsertTryonRender = `--sql a1e5f3c7-9d2b-4860-8c4f-3b7e0d9a2c16
insert into tryon_renders (
  session_id,
  run_id,
  preference,
  hairstyle,
  status,
  caption,
  error_message,
  storage_key
)
values ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8);
`

const QTryonRendersBySession = `--sql 6f3b8d0e-2a9c-4e15-9d7b-8c1f4a6e3b90
select run_id, preference, hairstyle, status, caption, error_message, storage_key, created_at
from tryon_renders
where session_id = $1::uuid
order by created_at asc, hairstyle asc;
`
