package engine

import (
	"strings"
	"time"

	"sabercon-migrate/internal/schema"
)

// Registry returns the legacy entities the importer knows, each with the
// column order its dump file was written in.
func Registry() []*Entity {
	return []*Entity{
		newEntity("institution", []*schema.Column{
			col("id", "bigint", 0),
			col("name", "varchar", 255),
			col("company_name", "varchar", 255),
			col("document", "varchar", 20),
			col("accountable_name", "varchar", 255),
			col("deleted", "bit", 1),
		}, nil, decodeInstitution),

		newEntity("unit", []*schema.Column{
			col("id", "bigint", 0),
			col("institution_id", "bigint", 0),
			col("name", "varchar", 255),
			col("deleted", "bit", 1),
		}, []Parent{
			{Column: "institution_id", Entity: "institution", Target: "institution_id", Required: true},
		}, decodeUnit),

		newEntity("unit_class", []*schema.Column{
			col("id", "bigint", 0),
			col("unit_id", "bigint", 0),
			col("name", "varchar", 255),
			col("year", "int", 4),
			col("deleted", "bit", 1),
		}, []Parent{
			{Column: "unit_id", Entity: "unit", Target: "school_id", Required: true},
		}, decodeUnitClass),

		newEntity("role", []*schema.Column{
			col("id", "bigint", 0),
			col("name", "varchar", 50),
			col("authority", "varchar", 50),
		}, nil, decodeRole),

		newEntity("user", []*schema.Column{
			col("id", "bigint", 0),
			col("email", "varchar", 255),
			col("full_name", "varchar", 255),
			col("username", "varchar", 255),
			col("password", "varchar", 255),
			col("enabled", "bit", 1),
			col("account_expired", "bit", 1),
			col("is_admin", "bit", 1),
			col("is_manager", "bit", 1),
			col("is_teacher", "bit", 1),
			col("is_student", "bit", 1),
			col("institution_id", "bigint", 0),
			col("date_created", "datetime", 0),
			col("deleted", "bit", 1),
		}, []Parent{
			{Column: "institution_id", Entity: "institution", Target: "institution_id"},
		}, decodeUser),

		newEntity("profile", []*schema.Column{
			col("id", "bigint", 0),
			col("user_id", "bigint", 0),
			col("profile_name", "varchar", 255),
			col("avatar_color", "varchar", 20),
			col("is_child", "bit", 1),
			col("is_deleted", "bit", 1),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
		}, decodeProfile),

		newEntity("question", []*schema.Column{
			col("id", "bigint", 0),
			col("test", "text", 0),
			col("deleted", "bit", 1),
		}, nil, decodeQuestion),

		newEntity("certificate", []*schema.Column{
			col("id", "bigint", 0),
			col("user_id", "bigint", 0),
			col("document", "varchar", 255),
			col("license_code", "varchar", 255),
			col("tv_show_name", "varchar", 255),
			col("score", "double", 0),
			col("date_created", "datetime", 0),
			col("recreate", "bit", 1),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
		}, decodeCertificate),

		newEntity("answer", []*schema.Column{
			col("id", "bigint", 0),
			col("user_id", "bigint", 0),
			col("question_id", "bigint", 0),
			col("reply", "text", 0),
			col("is_correct", "bit", 1),
			col("date_created", "datetime", 0),
			col("deleted", "bit", 1),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
			{Column: "question_id", Entity: "question", Target: "question_id"},
		}, decodeAnswer),

		newEntity("viewing_status", []*schema.Column{
			col("id", "bigint", 0),
			col("user_id", "bigint", 0),
			col("profile_id", "bigint", 0),
			col("video_id", "bigint", 0),
			col("current_play_time", "int", 0),
			col("runtime", "int", 0),
			col("completed", "bit", 1),
			col("last_updated", "datetime", 0),
			col("deleted", "bit", 1),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
			{Column: "profile_id", Entity: "profile", Target: "profile_id"},
		}, decodeViewingStatus),

		association(newEntity("user_role", []*schema.Column{
			col("user_id", "bigint", 0),
			col("role_id", "bigint", 0),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
			{Column: "role_id", Entity: "role", Target: "role_id", Required: true},
		}, decodeUserRole)),

		association(newEntity("user_class", []*schema.Column{
			col("user_id", "bigint", 0),
			col("unit_class_id", "bigint", 0),
			col("role", "varchar", 50),
		}, []Parent{
			{Column: "user_id", Entity: "user", Target: "user_id", Required: true, Guard: true},
			{Column: "unit_class_id", Entity: "unit_class", Target: "class_id", Required: true},
		}, decodeUserClass)),
	}
}

func association(e *Entity) *Entity {
	e.Association = true
	for _, c := range e.Layout {
		c.IsPK = true
		c.IsNullable = false
	}
	return e
}

type institutionRow struct {
	ID              string
	Name            *string
	CompanyName     *string
	Document        *string
	AccountableName *string
	Deleted         bool
}

func decodeInstitution(f Fields) Decoded {
	r := institutionRow{
		ID:              f.ID("id"),
		Name:            f.String("name"),
		CompanyName:     f.String("company_name"),
		Document:        f.String("document"),
		AccountableName: f.String("accountable_name"),
		Deleted:         f.Bool("deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Columns:  []string{"name", "company_name", "document", "accountable_name"},
		Values:   []any{firstOf(r.Name, r.CompanyName), opt(r.CompanyName), opt(r.Document), opt(r.AccountableName)},
	}
}

type unitRow struct {
	ID            string
	InstitutionID string
	Name          *string
	Deleted       bool
}

func decodeUnit(f Fields) Decoded {
	r := unitRow{
		ID:            f.ID("id"),
		InstitutionID: f.ID("institution_id"),
		Name:          f.String("name"),
		Deleted:       f.Bool("deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"institution_id": r.InstitutionID},
		Columns:  []string{"name"},
		Values:   []any{opt(r.Name)},
	}
}

type unitClassRow struct {
	ID      string
	UnitID  string
	Name    *string
	Year    *int64
	Deleted bool
}

func decodeUnitClass(f Fields) Decoded {
	r := unitClassRow{
		ID:      f.ID("id"),
		UnitID:  f.ID("unit_id"),
		Name:    f.String("name"),
		Year:    f.Int("year"),
		Deleted: f.Bool("deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"unit_id": r.UnitID},
		Columns:  []string{"name", "year"},
		Values:   []any{opt(r.Name), opt(r.Year)},
	}
}

type roleRow struct {
	ID        string
	Name      *string
	Authority *string
}

func decodeRole(f Fields) Decoded {
	r := roleRow{
		ID:        f.ID("id"),
		Name:      f.String("name"),
		Authority: f.String("authority"),
	}
	// legacy authorities are Spring Security names: ROLE_TEACHER
	name := firstOf(r.Name, r.Authority)
	if s, ok := name.(string); ok {
		name = strings.TrimPrefix(strings.ToUpper(s), "ROLE_")
	}
	return Decoded{
		SourceID: r.ID,
		Columns:  []string{"name", "authority"},
		Values:   []any{name, opt(r.Authority)},
	}
}

type userRow struct {
	ID             string
	Email          *string
	FullName       *string
	Username       *string
	Password       *string
	Enabled        bool
	AccountExpired bool
	IsAdmin        bool
	IsManager      bool
	IsTeacher      bool
	IsStudent      bool
	InstitutionID  string
	DateCreated    *time.Time
	Deleted        bool
}

func decodeUser(f Fields) Decoded {
	r := userRow{
		ID:             f.ID("id"),
		Email:          f.String("email"),
		FullName:       f.String("full_name"),
		Username:       f.String("username"),
		Password:       f.String("password"),
		Enabled:        f.Bool("enabled"),
		AccountExpired: f.Bool("account_expired"),
		IsAdmin:        f.Bool("is_admin"),
		IsManager:      f.Bool("is_manager"),
		IsTeacher:      f.Bool("is_teacher"),
		IsStudent:      f.Bool("is_student"),
		InstitutionID:  f.ID("institution_id"),
		DateCreated:    f.Time("date_created"),
		Deleted:        f.Bool("deleted"),
	}
	var email any
	if r.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"institution_id": r.InstitutionID},
		Columns: []string{
			"email", "name", "username", "password", "enabled", "account_expired",
			"is_admin", "is_manager", "is_teacher", "is_student", "created_at",
		},
		Values: []any{
			email, firstOf(r.FullName, r.Username, r.Email), firstOf(r.Username, r.Email), opt(r.Password),
			r.Enabled, r.AccountExpired, r.IsAdmin, r.IsManager, r.IsTeacher, r.IsStudent, opt(r.DateCreated),
		},
	}
}

type profileRow struct {
	ID          string
	UserID      string
	ProfileName *string
	AvatarColor *string
	IsChild     bool
	Deleted     bool
}

func decodeProfile(f Fields) Decoded {
	r := profileRow{
		ID:          f.ID("id"),
		UserID:      f.ID("user_id"),
		ProfileName: f.String("profile_name"),
		AvatarColor: f.String("avatar_color"),
		IsChild:     f.Bool("is_child"),
		Deleted:     f.Bool("is_deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"user_id": r.UserID},
		Columns:  []string{"profile_name", "avatar_color", "is_child"},
		Values:   []any{opt(r.ProfileName), opt(r.AvatarColor), r.IsChild},
	}
}

type questionRow struct {
	ID      string
	Test    *string
	Deleted bool
}

func decodeQuestion(f Fields) Decoded {
	r := questionRow{
		ID:      f.ID("id"),
		Test:    f.String("test"),
		Deleted: f.Bool("deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Columns:  []string{"test"},
		Values:   []any{opt(r.Test)},
	}
}

type certificateRow struct {
	ID          string
	UserID      string
	Document    *string
	LicenseCode *string
	TVShowName  *string
	Score       *float64
	DateCreated *time.Time
	Recreate    bool
}

func decodeCertificate(f Fields) Decoded {
	r := certificateRow{
		ID:          f.ID("id"),
		UserID:      f.ID("user_id"),
		Document:    f.String("document"),
		LicenseCode: f.String("license_code"),
		TVShowName:  f.String("tv_show_name"),
		Score:       f.Float("score"),
		DateCreated: f.Time("date_created"),
		Recreate:    f.Bool("recreate"),
	}
	return Decoded{
		SourceID: r.ID,
		Parents:  map[string]string{"user_id": r.UserID},
		Columns:  []string{"document", "license_code", "tv_show_name", "score", "created_at", "recreate"},
		Values:   []any{opt(r.Document), opt(r.LicenseCode), opt(r.TVShowName), opt(r.Score), opt(r.DateCreated), r.Recreate},
	}
}

type answerRow struct {
	ID          string
	UserID      string
	QuestionID  string
	Reply       *string
	IsCorrect   bool
	DateCreated *time.Time
	Deleted     bool
}

func decodeAnswer(f Fields) Decoded {
	r := answerRow{
		ID:          f.ID("id"),
		UserID:      f.ID("user_id"),
		QuestionID:  f.ID("question_id"),
		Reply:       f.String("reply"),
		IsCorrect:   f.Bool("is_correct"),
		DateCreated: f.Time("date_created"),
		Deleted:     f.Bool("deleted"),
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"user_id": r.UserID, "question_id": r.QuestionID},
		Columns:  []string{"reply", "is_correct", "created_at"},
		Values:   []any{opt(r.Reply), r.IsCorrect, opt(r.DateCreated)},
	}
}

type viewingStatusRow struct {
	ID              string
	UserID          string
	ProfileID       string
	VideoID         *int64
	CurrentPlayTime *int64
	Runtime         *int64
	Completed       bool
	LastUpdated     *time.Time
	Deleted         bool
}

func decodeViewingStatus(f Fields) Decoded {
	r := viewingStatusRow{
		ID:              f.ID("id"),
		UserID:          f.ID("user_id"),
		ProfileID:       f.ID("profile_id"),
		VideoID:         f.Int("video_id"),
		CurrentPlayTime: f.Int("current_play_time"),
		Runtime:         f.Int("runtime"),
		Completed:       f.Bool("completed"),
		LastUpdated:     f.Time("last_updated"),
		Deleted:         f.Bool("deleted"),
	}
	// a finished video is reported complete even when the flag lagged behind
	completed := r.Completed
	if !completed && r.CurrentPlayTime != nil && r.Runtime != nil && *r.Runtime > 0 && *r.CurrentPlayTime >= *r.Runtime {
		completed = true
	}
	return Decoded{
		SourceID: r.ID,
		Deleted:  r.Deleted,
		Parents:  map[string]string{"user_id": r.UserID, "profile_id": r.ProfileID},
		Columns:  []string{"video_id", "current_play_time", "runtime", "completed", "updated_at"},
		Values:   []any{opt(r.VideoID), opt(r.CurrentPlayTime), opt(r.Runtime), completed, opt(r.LastUpdated)},
	}
}

type userRoleRow struct {
	UserID string
	RoleID string
}

func decodeUserRole(f Fields) Decoded {
	r := userRoleRow{UserID: f.ID("user_id"), RoleID: f.ID("role_id")}
	return Decoded{
		SourceID: compositeID(r.UserID, r.RoleID),
		Parents:  map[string]string{"user_id": r.UserID, "role_id": r.RoleID},
	}
}

type userClassRow struct {
	UserID      string
	UnitClassID string
	Role        *string
}

func decodeUserClass(f Fields) Decoded {
	r := userClassRow{UserID: f.ID("user_id"), UnitClassID: f.ID("unit_class_id"), Role: f.String("role")}
	return Decoded{
		SourceID: compositeID(r.UserID, r.UnitClassID),
		Parents:  map[string]string{"user_id": r.UserID, "unit_class_id": r.UnitClassID},
		Columns:  []string{"role"},
		Values:   []any{opt(r.Role)},
	}
}

// compositeID keys association rows, empty when any part is missing.
func compositeID(parts ...string) string {
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, ":")
}

// firstOf returns the first non-blank value, or nil.
func firstOf(values ...*string) any {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return nil
}
