package wizard

// Stage is a wizard page.
type Stage string

const (
	StageEditing        Stage = "editing"
	StageSelectingMedia Stage = "selecting_media"
	StageDeveloping     Stage = "developing"
	StageResult         Stage = "result"
)

// previous is the back-link of every stage except the first.
var previous = map[Stage]Stage{
	StageSelectingMedia: StageEditing,
	StageDeveloping:     StageSelectingMedia,
	StageResult:         StageDeveloping,
}
