package migrate

// Entity type names as assigned by the source system.
const (
	EntityUser     = "user"
	EntityTag      = "tag"
	EntitySheet    = "sheet"
	EntityQuestion = "question"
	EntitySection  = "section"
	EntityChoice   = "choice"
	EntityResponse = "response"
	EntityAnswer   = "answer"
)

// DefaultMigrators returns the full set of entity migrators. The driver
// derives the execution order from their declared dependencies; the order
// of this slice does not matter.
func DefaultMigrators() []*EntityMigrator {
	return []*EntityMigrator{
		NewUserMigrator(),
		NewTagMigrator(),
		NewSheetMigrator(),
		NewQuestionMigrator(),
		NewSectionMigrator(),
		NewChoiceMigrator(),
		NewResponseMigrator(),
		NewAnswerMigrator(),
	}
}
