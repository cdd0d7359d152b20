package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sabercon-migrate/internal/schema"
)

func TestAnalyzeMeaning(t *testing.T) {
	tests := []struct {
		col, comment, want string
	}{
		{"tel_contato", "Telefone do responsável", "phone"},
		{"x", "E-mail institucional", "email"},
		{"user_email", "", "email"},
		{"nm_aluno", "", "name student"},
		{"dt_cadastro", "", "date cadastro"},
		{"cpf", "", "document"},
		{"full_name", "", "full name"},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.AnalyzeMeaning(tt.col, tt.comment))
		})
	}
}
