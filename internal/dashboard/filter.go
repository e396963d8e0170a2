package dashboard

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "labordash/internal/errors"
	api "labordash/pkg/contracts/api/v1"
	"labordash/pkg/contracts/domain"
)

var validate = validator.New()

// ParseFilter rebuilds the Filter from the dashboard state carried in query
// parameters. Multi-valued parameters may be repeated or comma-separated.
// Invalid input yields validator.ValidationErrors or a VALIDATION AppError.
func ParseFilter(values url.Values) (domain.Filter, error) {
	var req api.FilterRequest
	if err := decodeQuery(values, &req); err != nil {
		return domain.Filter{}, err
	}
	normalizeSources(req.Sources)
	if err := validate.Struct(req); err != nil {
		return domain.Filter{}, err
	}
	return toFilter(req)
}

// ParseForecastRequest parses a filter plus the forecast horizon. A missing
// horizon falls back to defaultHorizon.
func ParseForecastRequest(values url.Values, defaultHorizon int) (domain.Filter, int, error) {
	req := api.ForecastRequest{Horizon: defaultHorizon}
	if err := decodeQuery(values, &req); err != nil {
		return domain.Filter{}, 0, err
	}
	normalizeSources(req.Sources)
	if err := validate.Struct(req); err != nil {
		return domain.Filter{}, 0, err
	}
	f, err := toFilter(req.FilterRequest)
	if err != nil {
		return domain.Filter{}, 0, err
	}
	return f, req.Horizon, nil
}

// decodeQuery fills the fields of dst tagged with `query` from values.
// Embedded structs are decoded in place.
func decodeQuery(values url.Values, dst interface{}) error {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			if err := decodeQuery(values, fv.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("query")
		if name == "" {
			continue
		}
		switch fv.Kind() {
		case reflect.Slice:
			fv.Set(reflect.ValueOf(splitList(values[name])))
		case reflect.Int:
			raw := strings.TrimSpace(values.Get(name))
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return apperrors.NewAppValidationError(
					fmt.Sprintf("parameter %q must be an integer, got %q", name, raw)).
					WithContext("parameter", name)
			}
			fv.SetInt(int64(n))
		}
	}
	return nil
}

// splitList flattens repeated and comma-separated values, dropping blanks and repeats
func splitList(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range raw {
		for _, item := range strings.Split(r, ",") {
			item = strings.TrimSpace(item)
			if item == "" || seen[strings.ToLower(item)] {
				continue
			}
			seen[strings.ToLower(item)] = true
			out = append(out, item)
		}
	}
	return out
}

func normalizeSources(tags []string) {
	for i, tag := range tags {
		tags[i] = strings.ToLower(tag)
	}
}

func toFilter(req api.FilterRequest) (domain.Filter, error) {
	f := domain.Filter{
		FromYear:     req.From,
		ToYear:       req.To,
		Regions:      req.Regions,
		RegionGroups: req.RegionGroups,
		AgeBands:     req.AgeBands,
		Genders:      req.Genders,
		Educations:   req.Educations,
		Metrics:      req.Metrics,
	}
	seen := make(map[domain.Source]bool)
	for _, tag := range req.Sources {
		src, err := domain.ParseSource(tag)
		if err != nil {
			return domain.Filter{}, apperrors.NewAppValidationError(err.Error()).WithContext("parameter", "source")
		}
		if !seen[src] {
			seen[src] = true
			f.Sources = append(f.Sources, src)
		}
	}
	return f, nil
}
