package router

import (
	"github.com/upb/clearpath-assistant/models"
)

const (
	DefaultComplexModel = "llama-3.3-70b-versatile"
	DefaultFastModel    = "llama-3.1-8b-instant"
)

// Router maps a classification to a completion model id
type Router struct {
	complexModel string
	fastModel    string
}

// New creates a Router. Empty ids fall back to the defaults.
func New(complexModel, fastModel string) *Router {
	if complexModel == "" {
		complexModel = DefaultComplexModel
	}
	if fastModel == "" {
		fastModel = DefaultFastModel
	}
	return &Router{complexModel: complexModel, fastModel: fastModel}
}

// ChooseModel returns the high-capacity model for complex queries and the
// fast model for everything else
func (r *Router) ChooseModel(c models.Classification) string {
	if c == models.ClassificationComplex {
		return r.complexModel
	}
	return r.fastModel
}

// Models returns every model id the router can choose
func (r *Router) Models() []string {
	if r.complexModel == r.fastModel {
		return []string{r.fastModel}
	}
	return []string{r.complexModel, r.fastModel}
}
