// Package sandbox é uma API falsa do Runrun.it para rodar o importer localmente.
//
// Serve o subconjunto usado pelo importer (campos customizados, opções e
// criação de tarefas) em memória, atrás de um rate limit por App-Key que
// responde 429 com o cabeçalho RateLimit-Reset, como o servidor real.
package sandbox
