package sqlinline

const QTryonStatsTotals = `--sql d9c4a7f1-5e8b-4b23-a6d0-2f8c5b9e7a41
select
  (select count(*) from tryon_sessions) as total_sessions,
  count(*) filter (where status = 'ok') as renders_ok,
  count(*) filter (where status = 'blocked') as renders_blocked,
  count(*) filter (where status = 'failed') as renders_failed
from tryon_renders;
`
