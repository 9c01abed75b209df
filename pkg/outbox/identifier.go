package outbox

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

var identPartRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ParseIdentifier parses AUDIT_OUTBOX_TABLE, either "table" or "schema.table". Parts are
// folded to lower case the way Postgres folds unquoted names.
func ParseIdentifier(s string) (pgx.Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalidConfig("outbox table is empty")
	}
	parts := strings.Split(strings.ToLower(s), ".")
	if len(parts) > 2 {
		return nil, invalidConfig("outbox table %q: expected table or schema.table", s)
	}
	for _, p := range parts {
		if !identPartRe.MatchString(p) {
			return nil, invalidConfig("outbox table %q: bad part %q", s, p)
		}
	}
	return pgx.Identifier(parts), nil
}

// TableLabel is the dotted form used in metric labels and log fields.
func TableLabel(table pgx.Identifier) string {
	return strings.Join(table, ".")
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
