package registry

// Jurisdiction is one governing body known to the platform: a city council,
// a school board, a utility district. Jurisdictions are configuration, not
// runtime data — they are loaded once at startup and never mutated.
type Jurisdiction struct {
	ID             string
	Name           string
	AdminOwnerID   string
	BoundarySource string
	Districting    Districting
}

// Districting describes how a jurisdiction is carved into districts.
// It is a sealed variant: Undivided (membership is in/out only) or
// Subdivided (a matched boundary feature resolves to a district id).
// Code that needs subdivision rules must type-switch, so an undivided
// jurisdiction can never be asked for key candidates by accident.
type Districting interface {
	districting()
}

// Undivided means the jurisdiction has no internal districts.
type Undivided struct{}

func (Undivided) districting() {}

// Subdivided carries the rules for turning a matched boundary feature
// into a district id.
//
// KeyCandidates are property names probed on the matched feature, in
// order; the first present non-empty value wins. Upstream boundary files
// are inconsistent about property naming (DISTRICT vs COUNCIL_DIST vs
// NAME), which is why this is a list.
//
// KeyMap translates a raw boundary key value into the platform's district
// id. Raw keys missing from the map pass through unchanged.
type Subdivided struct {
	KeyCandidates []string
	KeyMap        map[string]string
}

func (Subdivided) districting() {}
