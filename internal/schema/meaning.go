package schema

import "strings"

// abbreviations decodes the column-name fragments found in the legacy
// schema, which mixes Portuguese and English.
var abbreviations = map[string]string{
	// Common Nouns
	"nm": "name", "nome": "name", "dt": "date", "data": "date",
	"no": "number", "num": "number", "cd": "code", "cod": "code",
	"desc": "description", "descricao": "description",
	"qtd": "quantity", "qty": "quantity", "cnt": "count",
	"addr": "address", "endereco": "address", "end": "address",
	"tel": "phone", "telefone": "phone", "cel": "phone", "celular": "phone",
	"cep": "zipcode", "zip": "zipcode",
	"pwd": "password", "senha": "password", "passwd": "password",
	"img": "image", "url": "url", "path": "path", "arquivo": "file",
	"msg": "message", "txt": "text", "texto": "text", "titulo": "title",
	"usr": "user", "usuario": "user", "aluno": "student", "prof": "teacher",
	"inst": "institution", "instituicao": "institution", "escola": "school",
	"turma": "class", "doc": "document", "documento": "document",
	"cpf": "document", "cnpj": "document",
	"cidade": "city", "pais": "country", "estado": "state",

	// Verbs / Status
	"reg": "registered", "mod": "modified", "del": "deleted", "cre": "created",
	"upd": "updated", "yn": "yesno", "stat": "status", "sts": "status",
	"ativo": "yesno", "is": "yesno", "flg": "flag", "excluido": "deleted",
	"seq": "sequence", "idx": "index", "ord": "order",
}

// AnalyzeMeaning guesses what a column holds from its comment and name,
// returning keywords such as "phone", "email" or the decoded name parts.
func AnalyzeMeaning(colName, comment string) string {
	c := strings.ToLower(comment)
	n := strings.ToLower(colName)

	// 1. Comment keywords (Portuguese/English)
	switch {
	case containsAny(c, "telefone", "celular", "contato", "phone", "mobile"):
		return "phone"
	case containsAny(c, "e-mail", "email", "mail"):
		return "email"
	case containsAny(c, "endereço", "endereco", "address"):
		return "address"
	case containsAny(c, "cep", "zip", "postal"):
		return "zipcode"
	case containsAny(c, "nome", "name"):
		return "name"
	case containsAny(c, "senha", "password"):
		return "password"
	case containsAny(c, "cpf", "cnpj", "documento", "document"):
		return "document"
	case containsAny(c, "título", "titulo", "title"):
		return "title"
	case containsAny(c, "descrição", "descricao", "description"):
		return "description"
	case containsAny(c, "data", "date", "time"):
		return "date"
	case containsAny(c, "excluído", "excluido", "deleted"):
		return "deleted"
	case containsAny(c, "ativo", "flag", "yes/no"):
		return "yesno"
	}

	// 2. Column name fragments
	if strings.Contains(n, "email") {
		return "email"
	}
	parts := strings.Split(n, "_")
	decoded := make([]string, 0, len(parts))
	for _, part := range parts {
		if full, ok := abbreviations[part]; ok {
			decoded = append(decoded, full)
		} else {
			decoded = append(decoded, part)
		}
	}
	return strings.Join(decoded, " ")
}

func containsAny(s string, subs ...string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
