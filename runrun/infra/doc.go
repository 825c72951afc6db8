// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - SlidingWindow: janela deslizante de requisições admitidas (limiter padrão)
//   - NewTokenBucket: alternativa token-bucket usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: contadores da importação
//   - CSVRows: fonte de linhas a partir de um arquivo CSV
//   - InitTracing: provider OpenTelemetry para os spans do cliente
package infra
