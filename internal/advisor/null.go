package advisor

import "context"

// NullProvider is the default, always-silent provider. Analyze never calls
// Recommend on it -- it is only present so provider selection has a valid
// zero case.
type NullProvider struct{}

func (NullProvider) Name() string  { return "none" }
func (NullProvider) Model() string { return "null" }

func (NullProvider) Recommend(context.Context, map[string]interface{}, map[string]interface{}) (*RawRecommendation, error) {
	return nil, nil
}
