package guard

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/masjidku/masjidku-web/internal/models"
)

// Default redirect targets
const (
	DefaultLoginPath        = "/login"
	DefaultUnauthorizedPath = "/unauthorized"
)

// Protected is one guarded path prefix. An empty Role admits any signed-in user.
type Protected struct {
	Prefix string      `yaml:"prefix"`
	Role   models.Role `yaml:"role,omitempty"`
}

// Rules decide how the guard treats a path
type Rules struct {
	LoginPath        string      `yaml:"login_path"`
	UnauthorizedPath string      `yaml:"unauthorized_path"`
	Static           []string    `yaml:"static"`
	Public           []string    `yaml:"public"`
	Protected        []Protected `yaml:"protected"`
}

// Decision is the classification of a single path
type Decision int

const (
	// Pass means no check is performed
	Pass Decision = iota
	// Static means the path is an asset and bypasses everything
	Static
	// Guarded means a session is required
	Guarded
)

// DefaultRules mirrors the application's page layout
func DefaultRules() Rules {
	return Rules{
		LoginPath:        DefaultLoginPath,
		UnauthorizedPath: DefaultUnauthorizedPath,
		Static:           []string{"/static", "/favicon.ico", "/robots.txt"},
		Public:           []string{"/", "/login", "/register", "/landing", "/unauthorized"},
		Protected: []Protected{
			{Prefix: "/dashboard"},
			{Prefix: "/admin", Role: models.RoleAdmin},
			{Prefix: "/takmir", Role: models.RoleTakmir},
		},
	}
}

// LoadRules reads rules from a YAML file; unset fields keep their defaults
func LoadRules(file string) (Rules, error) {
	rules := DefaultRules()
	if file == "" {
		return rules, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return rules, fmt.Errorf("failed to read routes file: %w", err)
	}

	var fromFile Rules
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return rules, fmt.Errorf("failed to parse routes file: %w", err)
	}

	if fromFile.LoginPath != "" {
		rules.LoginPath = fromFile.LoginPath
	}
	if fromFile.UnauthorizedPath != "" {
		rules.UnauthorizedPath = fromFile.UnauthorizedPath
	}
	if fromFile.Static != nil {
		rules.Static = fromFile.Static
	}
	if fromFile.Public != nil {
		rules.Public = fromFile.Public
	}
	if fromFile.Protected != nil {
		rules.Protected = fromFile.Protected
	}

	return rules, rules.Validate()
}

// Validate checks that every protected role is known
func (r Rules) Validate() error {
	for _, p := range r.Protected {
		if !strings.HasPrefix(p.Prefix, "/") {
			return fmt.Errorf("protected prefix %q must start with /", p.Prefix)
		}
		if p.Role != "" && !p.Role.Valid() {
			return fmt.Errorf("protected prefix %s has unknown role %q", p.Prefix, p.Role)
		}
	}
	return nil
}

// hasPrefix matches whole path segments: /admin matches /admin and
// /admin/users but not /administrator.
func hasPrefix(p, prefix string) bool {
	if prefix == "/" {
		return p == "/"
	}
	prefix = strings.TrimRight(prefix, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Classify decides what the guard does with a path and, for guarded paths,
// which role (if any) is required. The longest matching protected prefix wins,
// unless a public entry matches the path at least as specifically.
func (r Rules) Classify(p string) (Decision, models.Role) {
	for _, s := range r.Static {
		if hasPrefix(p, s) {
			return Static, ""
		}
	}
	// Anything that looks like a file is an asset
	if ext := path.Ext(path.Base(p)); ext != "" {
		return Static, ""
	}

	matches := make([]Protected, 0, 1)
	for _, prot := range r.Protected {
		if hasPrefix(p, prot.Prefix) {
			matches = append(matches, prot)
		}
	}
	if len(matches) == 0 {
		return Pass, ""
	}
	sort.Slice(matches, func(i, j int) bool {
		return len(matches[i].Prefix) > len(matches[j].Prefix)
	})
	best := matches[0]

	for _, pub := range r.Public {
		if hasPrefix(p, pub) && len(strings.TrimRight(pub, "/")) >= len(strings.TrimRight(best.Prefix, "/")) {
			return Pass, ""
		}
	}
	return Guarded, best.Role
}
