package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ArtifactError   = 4
	InferenceError  = 5
	TrainError      = 6
	ScoreError      = 7
	CopyError       = 8
	PartialSuccess  = 9
	ServerError     = 10
)
