package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type RunFinishedMailData struct {
	RunID           string      `json:"runID"`
	Problem         ProblemKind `json:"problem"`
	Status          RunStatus   `json:"status"`
	Error           string      `json:"error"`
	BestFitness     float64     `json:"bestFitness"`
	Score           float64     `json:"score"`
	Generations     int         `json:"generations"`
	FoundGeneration int         `json:"foundGeneration"`
	BestText        string      `json:"bestText"`
}

const (
	MailQueue           = "email_queue"
	MailTypeRunFinished = "run_finished"
)
