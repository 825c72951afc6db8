// Package domain define contratos e tipos de domínio do importador de tarefas.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// (schema de campos, payload de tarefa, erros) de detalhes de infraestrutura.
package domain
