// Package application contém os casos de uso do importador: resolução de schema
// por board, formatação/validação de campos customizados, montagem do payload
// e o laço sequencial que leva cada linha até a API.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Builder.Build(row, defaults, schema) retorna um TaskDraft ou um ValidationError.
package application
