// Package api serves annual cost estimates over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/ratecalc"
	"github.com/sells-group/electrify-cli/internal/results"
	"github.com/sells-group/electrify-cli/internal/territory"
)

// maxBodyBytes bounds an estimate request; a year of hourly values with
// timestamps fits comfortably.
const maxBodyBytes = 4 << 20

// Server holds the handlers' dependencies.
type Server struct {
	calc     *ratecalc.Calculator
	resolver *territory.Resolver
	log      *zap.Logger
}

// NewServer returns a Server pricing against calc's catalog.
func NewServer(calc *ratecalc.Calculator, resolver *territory.Resolver) *Server {
	return &Server{
		calc:     calc,
		resolver: resolver,
		log:      zap.L().With(zap.String("component", "api")),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", s.handlePlans)
		r.Get("/counties", s.handleCounties)
		r.Get("/counties/{county}", s.handleCounty)
		r.Post("/estimate", s.handleEstimate)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"catalog": s.calc.Catalog().Version(),
	})
}

// PlanInfo describes one rate plan.
type PlanInfo struct {
	Utility   model.Utility   `json:"utility"`
	Commodity model.Commodity `json:"commodity"`
	Name      string          `json:"name"`
	Source    string          `json:"source,omitempty"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	utilities := s.calc.Catalog().Utilities()
	if q := r.URL.Query().Get("utility"); q != "" {
		u, err := model.ParseUtility(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		utilities = []model.Utility{u}
	}

	plans := []PlanInfo{}
	for _, u := range utilities {
		for _, p := range s.calc.Catalog().ElectricPlans(u) {
			plans = append(plans, PlanInfo{Utility: u, Commodity: model.CommodityElectricity, Name: p.Name, Source: p.Source})
		}
		for _, p := range s.calc.Catalog().GasPlans(u) {
			plans = append(plans, PlanInfo{Utility: u, Commodity: model.CommodityGas, Name: p.Name, Source: p.Source})
		}
	}
	writeJSON(w, http.StatusOK, plans)
}

// CountyInfo is the service assignment of a county.
type CountyInfo struct {
	County       string          `json:"county"`
	DisplayName  string          `json:"display_name"`
	Utility      model.Utility   `json:"utility"`
	GasTerritory model.Territory `json:"gas_territory,omitempty"`
}

func (s *Server) countyInfo(county string) (*CountyInfo, error) {
	utility, err := s.resolver.ResolveUtility(county)
	if err != nil {
		return nil, err
	}
	slug := territory.Slugify(county)
	info := &CountyInfo{County: slug, DisplayName: territory.DisplayName(slug), Utility: utility}
	if t, err := s.resolver.ResolveGasTerritory(county, utility); err == nil {
		info.GasTerritory = t
	}
	return info, nil
}

func (s *Server) handleCounties(w http.ResponseWriter, _ *http.Request) {
	out := []CountyInfo{}
	for _, county := range s.resolver.AllCounties() {
		info, err := s.countyInfo(county)
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCounty(w http.ResponseWriter, r *http.Request) {
	info, err := s.countyInfo(chi.URLParam(r, "county"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// EstimateRequest prices one household's hourly usage. Either County or
// Utility must be set; gas estimates need a county or an explicit territory.
type EstimateRequest struct {
	County    string          `json:"county"`
	Utility   model.Utility   `json:"utility"`
	Territory model.Territory `json:"territory"`
	Commodity model.Commodity `json:"commodity"`
	// Usage is 8760 hourly kWh, or therms readings for gas.
	Usage []float64 `json:"usage"`
	// Timestamps optionally date gas readings; hourly from Jan 1 otherwise.
	Timestamps []string `json:"timestamps,omitempty"`
}

// EstimateResponse carries the annual USD cost per plan.
type EstimateResponse struct {
	Utility   model.Utility     `json:"utility"`
	Territory model.Territory   `json:"territory,omitempty"`
	Commodity model.Commodity   `json:"commodity"`
	Costs     map[string]string `json:"costs"`
	Cheapest  string            `json:"cheapest"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.Estimate(req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Estimate prices req under every plan of its utility.
func (s *Server) Estimate(req EstimateRequest) (*EstimateResponse, error) {
	commodity, err := model.ParseCommodity(string(req.Commodity))
	if err != nil {
		return nil, &badRequest{msg: err.Error()}
	}

	utility := req.Utility
	if req.County != "" {
		if utility, err = s.resolver.ResolveUtility(req.County); err != nil {
			return nil, err
		}
	}
	if utility == "" {
		return nil, &badRequest{msg: "county or utility is required"}
	}
	if utility, err = model.ParseUtility(string(utility)); err != nil {
		return nil, &badRequest{msg: err.Error()}
	}

	resp := &EstimateResponse{Utility: utility, Commodity: commodity}
	var costs map[string]decimal.Decimal

	switch commodity {
	case model.CommodityElectricity:
		costs, err = s.calc.ElectricCosts(req.Usage, utility)
	case model.CommodityGas:
		resp.Territory = req.Territory
		if resp.Territory == "" {
			if req.County == "" {
				return nil, &badRequest{msg: "gas estimates need a county or territory"}
			}
			if resp.Territory, err = s.resolver.ResolveGasTerritory(req.County, utility); err != nil {
				return nil, err
			}
		}
		usage, uErr := gasUsage(req)
		if uErr != nil {
			return nil, uErr
		}
		costs, err = s.calc.GasCosts(usage, resp.Territory, utility)
	}
	if err != nil {
		return nil, err
	}

	resp.Costs = make(map[string]string, len(costs))
	names := make([]string, 0, len(costs))
	for name, cost := range costs {
		resp.Costs[name] = results.FormatUSD(cost)
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if resp.Cheapest == "" || costs[name].LessThan(costs[resp.Cheapest]) {
			resp.Cheapest = name
		}
	}
	return resp, nil
}
