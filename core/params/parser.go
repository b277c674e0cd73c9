// Package params validates and normalizes web service request parameters.
package params

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"acoustid/core/apierr"
	"acoustid/core/auth"
	"acoustid/logger"
	"acoustid/repository"

	"github.com/google/uuid"
)

var foreignIDPattern = regexp.MustCompile(`^[0-9a-z]+:\S+$`)

// Client identifies the application making a request.
type Client struct {
	ApplicationID      int64
	ApplicationVersion string
}

// IsDemo reports whether the request was made with the public demo key.
func (c Client) IsDemo() bool {
	return c.ApplicationID == auth.DemoApplicationID
}

// Parser turns request values into validated parameters.
type Parser struct {
	applications    repository.ApplicationRepository
	accounts        repository.AccountRepository
	demoSecret      string
	maxDurationDiff int
	now             func() time.Time
}

// NewParser creates a parser. maxDurationDiff is the largest maxdurationdiff
// a client may ask for.
func NewParser(applications repository.ApplicationRepository, accounts repository.AccountRepository, demoSecret string, maxDurationDiff int) *Parser {
	return &Parser{
		applications:    applications,
		accounts:        accounts,
		demoSecret:      demoSecret,
		maxDurationDiff: maxDurationDiff,
		now:             time.Now,
	}
}

// ParseClient resolves the client API key to an application. Unknown keys
// are checked against the demo key before being rejected.
func (p *Parser) ParseClient(ctx context.Context, values url.Values) (Client, error) {
	apiKey := values.Get("client")
	if apiKey == "" {
		return Client{}, apierr.MissingParameter("client")
	}

	client := Client{ApplicationVersion: values.Get("clientversion")}
	app, err := p.applications.FindActiveByAPIKey(ctx, apiKey)
	if err != nil {
		return Client{}, fmt.Errorf("resolve client: %w", err)
	}
	switch {
	case app != nil:
		client.ApplicationID = app.ID
	case auth.CheckDemoClientAPIKey(p.demoSecret, apiKey, p.now()):
		client.ApplicationID = auth.DemoApplicationID
	default:
		logger.Warn("[Params] Invalid API key", logger.String("client", apiKey))
		return Client{}, apierr.InvalidAPIKey()
	}
	return client, nil
}

// group is one batch entry: the parameters sharing a numeric suffix.
type group struct {
	index  string // "" for the unsuffixed group
	suffix string
}

func (g group) name(base string) string {
	return base + g.suffix
}

// findGroups returns the groups that carry at least one of the base names,
// either bare or as "name.N". Groups are sorted by N, the bare group first.
func findGroups(values url.Values, bases ...string) []group {
	bare := false
	seen := make(map[int]bool)
	for name := range values {
		for _, base := range bases {
			if name == base {
				bare = true
				continue
			}
			suffix, ok := strings.CutPrefix(name, base+".")
			if !ok || !isDigits(suffix) {
				continue
			}
			if n, err := strconv.Atoi(suffix); err == nil {
				seen[n] = true
			}
		}
	}

	indexes := make([]int, 0, len(seen))
	for n := range seen {
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)

	groups := make([]group, 0, len(indexes)+1)
	if bare {
		groups = append(groups, group{})
	}
	for _, n := range indexes {
		index := strconv.Itoa(n)
		groups = append(groups, group{index: index, suffix: "." + index})
	}
	return groups
}

// parseGroups calls parse for every group. A group that fails validation is
// dropped, unless it is the last one and no group has been accepted yet.
func parseGroups(groups []group, parse func(group) error, accepted func() int) error {
	for i, g := range groups {
		if err := parse(g); err != nil {
			if _, ok := apierr.As(err); !ok {
				return err
			}
			if accepted() == 0 && i+1 == len(groups) {
				return err
			}
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// optionalInt reads an integer parameter. Missing, empty and non-numeric
// values are reported as absent.
func optionalInt(values url.Values, name string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(values.Get(name)))
	if err != nil {
		return 0, false
	}
	return v, true
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isForeignID(s string) bool {
	return foreignIDPattern.MatchString(s)
}
