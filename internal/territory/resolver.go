// Package territory maps California counties to their utility and gas
// baseline territory.
package territory

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/electrify-cli/internal/model"
)

//go:embed counties.yaml
var embeddedCounties []byte

// LegacyTerritory is the gas territory assigned to unknown counties in
// legacy mode.
const LegacyTerritory model.Territory = "T"

type countiesDoc struct {
	Utilities      map[model.Utility][]string                     `yaml:"utilities"`
	GasTerritories map[model.Utility]map[model.Territory][]string `yaml:"gas_territories"`
}

// Resolver answers county lookups against static assignment tables.
type Resolver struct {
	utilities     map[string]model.Utility
	gas           map[model.Utility]map[string]model.Territory
	legacyDefault bool
	log           *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLegacyDefault makes unknown counties resolve to PG&E and territory
// "T" instead of failing.
func WithLegacyDefault(enabled bool) Option {
	return func(r *Resolver) { r.legacyDefault = enabled }
}

// New builds a Resolver from the embedded county tables.
func New(opts ...Option) (*Resolver, error) {
	return Parse(embeddedCounties, opts...)
}

// Parse builds a Resolver from a counties document.
func Parse(data []byte, opts ...Option) (*Resolver, error) {
	var doc countiesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "territory: decode counties")
	}

	r := &Resolver{
		utilities: make(map[string]model.Utility),
		gas:       make(map[model.Utility]map[string]model.Territory),
		log:       zap.L().With(zap.String("component", "territory")),
	}
	for _, opt := range opts {
		opt(r)
	}

	for utility, counties := range doc.Utilities {
		for _, county := range counties {
			slug := Slugify(county)
			if prev, ok := r.utilities[slug]; ok {
				return nil, eris.Errorf("territory: county %q assigned to both %s and %s", slug, prev, utility)
			}
			r.utilities[slug] = utility
		}
	}

	for utility, territories := range doc.GasTerritories {
		byCounty := make(map[string]model.Territory)
		for territory, counties := range territories {
			for _, county := range counties {
				slug := Slugify(county)
				if prev, ok := byCounty[slug]; ok {
					return nil, eris.Errorf("territory: county %q in %s gas territories %s and %s", slug, utility, prev, territory)
				}
				byCounty[slug] = territory
			}
		}
		r.gas[utility] = byCounty
	}

	return r, nil
}

// ResolveUtility returns the utility serving county.
func (r *Resolver) ResolveUtility(county string) (model.Utility, error) {
	slug := Slugify(county)
	if u, ok := r.utilities[slug]; ok {
		return u, nil
	}
	if r.legacyDefault {
		r.log.Warn("unknown county, defaulting utility",
			zap.String("county", slug),
			zap.String("utility", string(model.UtilityPGE)),
		)
		return model.UtilityPGE, nil
	}
	return "", &model.ResolutionError{County: slug}
}

// ResolveGasTerritory returns the gas baseline territory of county within utility.
func (r *Resolver) ResolveGasTerritory(county string, utility model.Utility) (model.Territory, error) {
	slug := Slugify(county)
	if t, ok := r.gas[utility][slug]; ok {
		return t, nil
	}
	if r.legacyDefault && utility == model.UtilityPGE {
		r.log.Warn("unknown county, defaulting gas territory",
			zap.String("county", slug),
			zap.String("territory", string(LegacyTerritory)),
		)
		return LegacyTerritory, nil
	}
	return "", &model.ResolutionError{County: slug, Utility: utility}
}

// Counties returns the counties served by utility, sorted.
func (r *Resolver) Counties(utility model.Utility) []string {
	var out []string
	for county, u := range r.utilities {
		if u == utility {
			out = append(out, county)
		}
	}
	sort.Strings(out)
	return out
}

// AllCounties returns every known county, sorted.
func (r *Resolver) AllCounties() []string {
	out := make([]string, 0, len(r.utilities))
	for county := range r.utilities {
		out = append(out, county)
	}
	sort.Strings(out)
	return out
}

// Slugify turns "Santa Clara County" into "santa-clara".
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "county", "")
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, " ", "-")
}

// DisplayName turns "santa-clara" into "Santa Clara County".
func DisplayName(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " ")) + " County"
}
