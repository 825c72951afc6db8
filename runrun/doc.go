// Package runrun é o adapter HTTP para a API v1.0 do Runrun.it.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (schema cache, formatação, builder, importação) sem net/http
//   - infra: implementações concretas (janela deslizante, token bucket, stats, CSV, tracing)
//   - runrun (este pacote): cliente HTTP com throttle + retry em 429, endpoints e upload de documentos
//
// Fluxo de uma requisição (Client.Do):
//
//  1. Espera o limiter admitir (a admissão já conta na janela)
//  2. Envia com App-Key / User-Token
//  3. 2xx: devolve o corpo; 429: lê ratelimit-reset, dorme até o reset + 250ms e tenta de novo
//  4. Qualquer outro status: *domain.APIError, sem retry
//
// Após 8 respostas 429 seguidas o erro embrulha domain.ErrRateLimitExhausted.
package runrun
