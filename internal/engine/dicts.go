package engine

// Brazilian Portuguese vocabulary for rehearsal dumps.
var (
	FirstNames = []string{
		"Ana", "Beatriz", "Camila", "Daniela", "Eduarda", "Fernanda", "Gabriela", "Helena", "Isabela", "Júlia",
		"Larissa", "Mariana", "Natália", "Rafaela", "Sofia", "Valentina", "Arthur", "Bernardo", "Caio", "Davi",
		"Enzo", "Felipe", "Gustavo", "Heitor", "João", "Lucas", "Matheus", "Miguel", "Pedro", "Rafael",
	}
	LastNames = []string{
		"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira", "Alves", "Pereira", "Lima", "Gomes",
		"Costa", "Ribeiro", "Martins", "Carvalho", "Almeida", "Lopes", "Soares", "Fernandes", "Vieira", "Barbosa",
	}
	Cities = []string{
		"São Paulo", "Rio de Janeiro", "Belo Horizonte", "Curitiba", "Porto Alegre", "Salvador", "Recife",
		"Fortaleza", "Goiânia", "Campinas", "Florianópolis", "Manaus", "Belém", "Vitória", "Natal",
	}
	SchoolPrefixes = []string{"Escola Estadual", "Escola Municipal", "Colégio", "Instituto", "Centro Educacional"}
	Patrons        = []string{
		"Machado de Assis", "Cecília Meireles", "Monteiro Lobato", "Paulo Freire", "Anísio Teixeira",
		"Darcy Ribeiro", "Rui Barbosa", "Tiradentes", "Dom Pedro II", "Santos Dumont",
	}
	ClassNames   = []string{"1º Ano A", "1º Ano B", "2º Ano A", "3º Ano A", "5º Ano C", "6º Ano A", "7º Ano B", "8º Ano A", "9º Ano B"}
	RoleNames    = []string{"ROLE_SYSTEM_ADMIN", "ROLE_INSTITUTION_MANAGER", "ROLE_TEACHER", "ROLE_STUDENT", "ROLE_GUARDIAN"}
	ShowNames    = []string{"Matemática em Foco", "Ciências da Natureza", "Língua Portuguesa", "História do Brasil", "Geografia Viva", "Inglês Básico"}
	AvatarColors = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899"}
	ClassRoles   = []string{"STUDENT", "TEACHER", "COORDINATOR"}
)

// Words feeds free-text columns such as question statements and replies.
var Words = []string{
	"aluno", "professor", "escola", "turma", "atividade", "prova", "leitura", "escrita", "resposta", "pergunta",
	"número", "fração", "equação", "planeta", "energia", "floresta", "rio", "cidade", "história", "mapa",
	"livro", "palavra", "frase", "texto", "exercício", "resultado", "conceito", "exemplo", "tema", "projeto",
	"qual", "como", "quando", "onde", "por que", "explique", "calcule", "descreva", "compare", "identifique",
}
