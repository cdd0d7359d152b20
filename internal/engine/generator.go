package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"

	"sabercon-migrate/internal/dump"
	"sabercon-migrate/internal/schema"
)

// GenerateOptions shapes a rehearsal dump set.
type GenerateOptions struct {
	Count         int     // rows per entity
	DeletedRatio  float64 // share of soft-deleted rows
	DanglingRatio float64 // share of rows pointing at a parent that does not exist
	Seed          int64   // 0 picks a time-based seed
}

// GenerateResult reports what was written for one entity.
type GenerateResult struct {
	Entity   string
	Path     string
	Rows     int
	Deleted  int
	Dangling int
}

// Generator writes fake legacy dumps so an import can be rehearsed end to
// end. Parents are drawn from the ids generated for parent entities.
type Generator struct {
	opts  GenerateOptions
	rand  *rand.Rand
	faker *gofakeit.Faker
	now   time.Time

	// fkPool holds the legacy ids generated per entity for child tables.
	fkPool map[string][]int64
}

func NewGenerator(opts GenerateOptions) *Generator {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Count <= 0 {
		opts.Count = 100
	}
	return &Generator{
		opts:   opts,
		rand:   rand.New(rand.NewSource(opts.Seed)),
		faker:  gofakeit.New(opts.Seed),
		now:    time.Now(),
		fkPool: make(map[string][]int64),
	}
}

// Generate writes <dir>/<entity>.sql for every entity, parents first.
func (g *Generator) Generate(dir string, entities []*Entity) ([]GenerateResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump dir: %w", err)
	}

	var results []GenerateResult
	for _, e := range Order(entities) {
		res, err := g.generateEntity(dir, e)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (g *Generator) generateEntity(dir string, e *Entity) (res GenerateResult, err error) {
	res = GenerateResult{Entity: e.Source, Path: dump.Path(dir, e.Source)}

	f, err := os.Create(res.Path)
	if err != nil {
		return res, fmt.Errorf("failed to create %s: %w", res.Path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := dump.NewWriter(f, e.Source, 200)

	// association tables must not repeat a parent pair
	usedCombinations := make(map[string]bool)

	for attempts := 0; res.Rows < g.opts.Count && attempts < g.opts.Count*10; attempts++ {
		id := int64(res.Rows + 1)
		values, dangling, deleted := g.generateRow(e, id)

		if e.Association {
			key := associationKey(e, values)
			if usedCombinations[key] {
				continue
			}
			usedCombinations[key] = true
		}

		if err := w.Write(values...); err != nil {
			return res, fmt.Errorf("failed to write %s: %w", res.Path, err)
		}
		res.Rows++
		if dangling {
			res.Dangling++
		}
		if deleted {
			res.Deleted++
		}
		if !e.Association {
			g.fkPool[e.Source] = append(g.fkPool[e.Source], id)
		}
	}

	if err := w.Close(); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", res.Path, err)
	}
	return res, nil
}

// associationKey is built from the parent columns only, the same values
// that make up the row's source id.
func associationKey(e *Entity, values []any) string {
	parts := make([]string, len(e.Parents))
	for i, p := range e.Parents {
		parts[i] = fmt.Sprint(values[e.index[p.Column]])
	}
	return strings.Join(parts, ":")
}

func (g *Generator) generateRow(e *Entity, id int64) (values []any, dangling, deleted bool) {
	parents := make(map[string]Parent, len(e.Parents))
	for _, p := range e.Parents {
		parents[p.Column] = p
	}

	values = make([]any, 0, len(e.Layout))
	for _, col := range e.Layout {
		switch {
		case col.Name == "id":
			values = append(values, id)
		case col.Name == "deleted" || col.Name == "is_deleted":
			deleted = g.rand.Float64() < g.opts.DeletedRatio
			values = append(values, deleted)
		default:
			if p, ok := parents[col.Name]; ok {
				v, broken := g.parentValue(p)
				dangling = dangling || broken
				values = append(values, v)
				continue
			}
			values = append(values, g.GenerateValue(col, e.Source))
		}
	}
	return values, dangling, deleted
}

// parentValue picks a parent id from the pool, or a missing one at the
// configured rate. Optional parents are sometimes left NULL.
func (g *Generator) parentValue(p Parent) (any, bool) {
	pool := g.fkPool[p.Entity]
	if len(pool) == 0 || g.rand.Float64() < g.opts.DanglingRatio {
		if !p.Required && g.rand.Intn(2) == 0 {
			return nil, false
		}
		return int64(900000 + g.rand.Intn(99999)), true
	}
	if !p.Required && g.rand.Intn(10) == 0 {
		return nil, false
	}
	return pool[g.rand.Intn(len(pool))], false
}

// GeneratePersonName returns a Brazilian full name.
func (g *Generator) GeneratePersonName() string {
	return FirstNames[g.rand.Intn(len(FirstNames))] + " " +
		LastNames[g.rand.Intn(len(LastNames))] + " " + LastNames[g.rand.Intn(len(LastNames))]
}

// GenerateSchoolName returns a plausible school name.
func (g *Generator) GenerateSchoolName() string {
	return SchoolPrefixes[g.rand.Intn(len(SchoolPrefixes))] + " " + Patrons[g.rand.Intn(len(Patrons))]
}

// GenerateCPF returns a formatted, not necessarily valid, CPF.
func (g *Generator) GenerateCPF() string {
	return fmt.Sprintf("%03d.%03d.%03d-%02d", g.rand.Intn(1000), g.rand.Intn(1000), g.rand.Intn(1000), g.rand.Intn(100))
}

func (g *Generator) sentence(words int) string {
	out := make([]string, words)
	for i := range out {
		out[i] = Words[g.rand.Intn(len(Words))]
	}
	r := []rune(strings.Join(out, " "))
	r[0] = unicode.ToUpper(r[0])
	return string(r) + "."
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// GenerateValue produces a value for a layout column, led by what the
// column name means and then by its declared type.
func (g *Generator) GenerateValue(col *schema.Column, tableName string) any {
	dataType := strings.ToLower(col.DeclaredType)
	colName := strings.ToLower(col.Name)
	meaning := col.Meaning

	// 1. character data, meaning first
	if strings.Contains(dataType, "char") || strings.Contains(dataType, "text") {
		switch {
		case strings.Contains(meaning, "email"):
			first := strings.ToLower(FirstNames[g.rand.Intn(len(FirstNames))])
			return truncate(fmt.Sprintf("%s.%d@%s", first, g.rand.Intn(100000), g.faker.DomainName()), col.Length)
		case strings.Contains(meaning, "password"):
			return "$2a$10$" + g.faker.LetterN(53)
		case strings.Contains(meaning, "document"):
			return g.GenerateCPF()
		case colName == "username":
			return strings.ToLower(strings.ReplaceAll(FirstNames[g.rand.Intn(len(FirstNames))], " ", "")) +
				fmt.Sprintf(".%d", g.rand.Intn(100000))
		case colName == "authority":
			return RoleNames[g.rand.Intn(len(RoleNames))]
		case colName == "avatar_color":
			return AvatarColors[g.rand.Intn(len(AvatarColors))]
		case colName == "tv_show_name":
			return ShowNames[g.rand.Intn(len(ShowNames))]
		case colName == "license_code":
			return strings.ToUpper(g.faker.LetterN(4)) + "-" + fmt.Sprintf("%06d", g.rand.Intn(1000000))
		case colName == "role":
			return ClassRoles[g.rand.Intn(len(ClassRoles))]
		case colName == "accountable_name":
			return truncate(g.GeneratePersonName(), col.Length)
		case colName == "company_name":
			return truncate(g.faker.Company()+" Educação Ltda", col.Length)
		case strings.Contains(meaning, "name"):
			switch tableName {
			case "institution":
				return "Rede " + Cities[g.rand.Intn(len(Cities))] + " de Ensino"
			case "unit":
				return truncate(g.GenerateSchoolName(), col.Length)
			case "unit_class":
				return ClassNames[g.rand.Intn(len(ClassNames))]
			case "role":
				return strings.TrimPrefix(RoleNames[g.rand.Intn(len(RoleNames))], "ROLE_")
			case "profile":
				return FirstNames[g.rand.Intn(len(FirstNames))]
			}
			return truncate(g.GeneratePersonName(), col.Length)
		case strings.Contains(meaning, "city"):
			return Cities[g.rand.Intn(len(Cities))]
		}

		if col.Length > 0 && col.Length < 20 {
			return truncate(Words[g.rand.Intn(len(Words))], col.Length)
		}
		return truncate(g.sentence(6+g.rand.Intn(10)), col.Length)
	}

	// 2. everything else by type
	switch {
	case strings.Contains(dataType, "date") || strings.Contains(dataType, "time"):
		val := g.faker.DateRange(g.now.AddDate(-3, 0, 0), g.now)
		if dataType == "date" {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")

	case dataType == "bit" || strings.Contains(dataType, "bool"):
		if colName == "enabled" {
			return g.rand.Intn(10) != 0
		}
		return g.faker.Bool()

	case strings.Contains(dataType, "int"):
		switch {
		case strings.Contains(colName, "year"):
			return 2018 + g.rand.Intn(8)
		case colName == "runtime":
			return 600 + g.rand.Intn(3000)
		case strings.Contains(colName, "time"):
			return g.rand.Intn(3600)
		}
		return g.faker.Number(1, 50000)

	case strings.Contains(dataType, "decimal") || strings.Contains(dataType, "float") || strings.Contains(dataType, "double"):
		return math.Round(g.faker.Float64Range(0, 10)*10) / 10
	}
	return nil
}
