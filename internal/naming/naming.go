// Package naming turns legacy table names into target table names.
package naming

import "strings"

// knownTables maps entity nouns of the legacy schema, in Portuguese and
// English, singular and plural, to their target table.
var knownTables = map[string]string{
	"user": "users", "users": "users", "usuario": "users", "usuarios": "users",
	"profile": "profiles", "perfil": "profiles", "perfis": "profiles",
	"role": "roles", "papel": "roles", "papeis": "roles",
	"user_role": "user_roles", "usuario_papel": "user_roles",
	"institution": "institutions", "instituicao": "institutions", "instituicoes": "institutions",
	"unit": "schools", "units": "schools", "unidade": "schools", "unidades": "schools",
	"escola": "schools", "school": "schools",
	"unit_class": "classes", "unit_classes": "classes", "turma": "classes", "turmas": "classes",
	"class": "classes",
	"user_class": "user_classes", "usuario_turma": "user_classes",
	"certificate": "certificates", "certificado": "certificates", "certificados": "certificates",
	"answer": "answers", "resposta": "answers", "respostas": "answers",
	"question": "questions", "questao": "questions", "questoes": "questions",
	"viewing_status": "viewing_statuses", "viewing_statuses": "viewing_statuses",
	"watchlist_entry": "watchlist_entries",
	"educational_stage": "education_periods", "periodo": "education_periods",
	"arquivo": "files", "genero": "genres", "autor": "authors", "autores": "authors",
	"video": "videos", "tv_show": "tv_shows", "notificacao": "notifications",
}

// NormalizeTableName returns the target table for a legacy table name.
// Lookup first; otherwise the name is pluralized:
//
//	...y              -> ...ies
//	...ss/x/ch/sh     -> ...es
//	no trailing s     -> ...s
//	trailing s        -> unchanged (already plural)
func NormalizeTableName(source string) string {
	name := strings.ToLower(strings.TrimSpace(source))
	if name == "" {
		return ""
	}
	if target, ok := knownTables[name]; ok {
		return target
	}
	return Pluralize(name)
}

// Pluralize applies the suffix rules of NormalizeTableName to a lowercase word.
func Pluralize(word string) string {
	switch {
	case strings.HasSuffix(word, "y"):
		return strings.TrimSuffix(word, "y") + "ies"
	case strings.HasSuffix(word, "ss"),
		strings.HasSuffix(word, "x"),
		strings.HasSuffix(word, "ch"),
		strings.HasSuffix(word, "sh"):
		return word + "es"
	case !strings.HasSuffix(word, "s"):
		return word + "s"
	default:
		return word
	}
}
