package domain

// FaceAnalysis is the structured result of analyzing a selfie.
type FaceAnalysis struct {
	FaceShape          string                `json:"face_shape"`
	OriginalHairLength string                `json:"original_hair_length,omitempty"`
	Hairstyles         []HairstyleSuggestion `json:"hairstyles"`
}

// HairstyleSuggestion pairs a style name with one sentence on why it suits
// the analyzed face.
type HairstyleSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Clone returns an independent copy of the analysis.
func (a *FaceAnalysis) Clone() *FaceAnalysis {
	if a == nil {
		return nil
	}
	copied := *a
	copied.Hairstyles = append([]HairstyleSuggestion(nil), a.Hairstyles...)
	return &copied
}
