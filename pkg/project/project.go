// Package project reads lockbridge project configuration from
// pyproject.toml.
//
// Standard metadata comes from the [project] table (name, version,
// requires-python, dependencies, optional-dependencies) and PEP 735
// [dependency-groups]. Tool settings live under [tool.lockbridge]:
// package sources, resolution policy, and build options.
package project

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/reqs"
)

// Source is one configured package source. Type selects the flag shape
// used for the resolver: "index" sources become primary/secondary
// indices in declared order, "find_links" sources are flat local or
// remote directories.
type Source struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Type     string `toml:"type"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// URLWithCredentials returns the source URL with any configured
// credentials embedded, plus a redacted display form. Username and
// password values support ${VAR} environment expansion so secrets stay
// out of pyproject.toml.
func (s *Source) URLWithCredentials() (real, display string) {
	user := os.ExpandEnv(s.Username)
	pass := os.ExpandEnv(s.Password)
	if user == "" && pass == "" {
		return s.URL, s.URL
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL, s.URL
	}
	u.User = url.UserPassword(user, pass)
	real = u.String()
	u.User = url.UserPassword(user, "***")
	return real, u.String()
}

// Resolution holds the policy settings applied during a resolver run.
type Resolution struct {
	RespectSourceOrder bool     `toml:"respect-source-order"`
	AllowPrereleases   bool     `toml:"allow-prereleases"`
	NoBinary           []string `toml:"no-binary"`
	OnlyBinary         []string `toml:"only-binary"`
	ExcludeNewer       string   `toml:"exclude-newer"`
}

// Config is the parsed project configuration.
type Config struct {
	Root           string
	Name           string
	Version        string
	RequiresPython string
	Dependencies   []string
	OptionalDeps   map[string][]string
	DepGroups      map[string][]string

	Sources          []Source
	Resolution       Resolution
	NoCache          bool
	NoBuildIsolation bool
	ConfigSettings   map[string]string
}

// pyproject is the TOML shape of the parts of pyproject.toml we read.
type pyproject struct {
	Project struct {
		Name           string              `toml:"name"`
		Version        string              `toml:"version"`
		RequiresPython string              `toml:"requires-python"`
		Dependencies   []string            `toml:"dependencies"`
		OptionalDeps   map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]string `toml:"dependency-groups"`
	Tool             struct {
		Lockbridge struct {
			NoCache          bool              `toml:"no-cache"`
			NoBuildIsolation bool              `toml:"no-build-isolation"`
			ConfigSettings   map[string]string `toml:"config-settings"`
			Resolution       Resolution        `toml:"resolution"`
			Source           []Source          `toml:"source"`
		} `toml:"lockbridge"`
	} `toml:"tool"`
}

// Load reads pyproject.toml from root. A missing or unparsable file is
// a usage error: lockbridge only operates inside a configured project.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProject, err, "no readable pyproject.toml in %s", root)
	}
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProject, err, "unparsable pyproject.toml")
	}

	tool := doc.Tool.Lockbridge
	return &Config{
		Root:             root,
		Name:             doc.Project.Name,
		Version:          doc.Project.Version,
		RequiresPython:   doc.Project.RequiresPython,
		Dependencies:     doc.Project.Dependencies,
		OptionalDeps:     doc.Project.OptionalDeps,
		DepGroups:        doc.DependencyGroups,
		Sources:          tool.Source,
		Resolution:       tool.Resolution,
		NoCache:          tool.NoCache,
		NoBuildIsolation: tool.NoBuildIsolation,
		ConfigSettings:   tool.ConfigSettings,
	}, nil
}

// NormalizedName returns the project's PEP 503 normalized package name.
func (c *Config) NormalizedName() string {
	return reqs.NormalizeName(c.Name)
}

// GroupRoots maps every dependency group to its declared requirement
// lines: the default group holds [project.dependencies], each extras
// group its optional dependencies, and each PEP 735 group its lines.
// Extras and dependency groups sharing a name are merged.
func (c *Config) GroupRoots() map[string][]string {
	roots := map[string][]string{lock.DefaultGroup: append([]string(nil), c.Dependencies...)}
	for group, lines := range c.OptionalDeps {
		roots[group] = append(roots[group], lines...)
	}
	for group, lines := range c.DepGroups {
		roots[group] = append(roots[group], lines...)
	}
	return roots
}

// GroupNames returns all known group names, default first, the rest
// sorted.
func (c *Config) GroupNames() []string {
	roots := c.GroupRoots()
	names := make([]string, 0, len(roots))
	for name := range roots {
		if name != lock.DefaultGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{lock.DefaultGroup}, names...)
}

// Declared returns the declared requirements of the given groups,
// parsed. Unknown groups fail with a usage error naming the group.
func (c *Config) Declared(groups []string) ([]*reqs.Requirement, error) {
	roots := c.GroupRoots()
	var out []*reqs.Requirement
	for _, group := range groups {
		lines, ok := roots[group]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownGroup, "unknown dependency group %q (known: %s)", group, strings.Join(c.GroupNames(), ", "))
		}
		for _, line := range lines {
			req, err := reqs.Parse(line)
			if err != nil {
				return nil, err
			}
			out = append(out, req)
		}
	}
	return out, nil
}
