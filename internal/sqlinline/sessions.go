package sqlinline

const QUpsertTryonSession = `--sql b3f1c6d2-4a7e-4c09-9b2d-6e8f0a1c5d37
insert into tryon_sessions (id, locale, face_shape, hair_length, suggestions)
values ($1::uuid, $2, $3, $4, $5::jsonb)
on conflict (id) do update set
  locale      = excluded.locale,
  face_shape  = excluded.face_shape,
  hair_length = excluded.hair_length,
  suggestions = excluded.suggestions,
  updated_at  = now();
`

const QRecentTryonSessions = `--sql e7a92b14-0c5f-4d68-8a3b-1f9e6c2d0b84
select id, locale, face_shape, hair_length, suggestions, created_at, updated_at
from tryon_sessions
order by updated_at desc
limit $1;
`

const QTryonSessionByID = `--sql 4c8d2e9f-6b1a-4f37-b5e0-9a3c7d1f8e52
select id, locale, face_shape, hair_length, suggestions, created_at, updated_at
from tryon_sessions
where id = $1::uuid;
`
