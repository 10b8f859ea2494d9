package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/txpress/taxi-api/internal/domain"
)

func pathOptions() runtime.BindStyledParameterOptions {
	return runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}
}

// pathUUID binds a uuid path parameter and returns it in canonical form.
func pathUUID(r *http.Request, name string) (string, error) {
	var id openapi_types.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, pathOptions()); err != nil {
		return "", err
	}
	return id.String(), nil
}

func pathInt(r *http.Request, name string) (int, error) {
	var n int
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &n, pathOptions()); err != nil {
		return 0, err
	}
	return n, nil
}

func pathTaxiNumber(r *http.Request) domain.TaxiNumber {
	return domain.NormalizeTaxiNumber(chi.URLParam(r, "num"))
}

// queryUUID binds a required form-style uuid query parameter.
func queryUUID(r *http.Request, name string) (string, error) {
	var id openapi_types.UUID
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &id); err != nil {
		return "", err
	}
	return id.String(), nil
}

func queryString(r *http.Request, name string) (string, error) {
	var v string
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &v); err != nil {
		return "", err
	}
	return v, nil
}
