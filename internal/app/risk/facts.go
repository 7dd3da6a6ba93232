package risk

// Canonical answer values for the fact set fields.
const (
	ContentImage = "image"
	ContentVideo = "video"
	ContentText  = "text"
	ContentMusic = "music"
	ContentFont  = "font"

	SourceInHouse    = "created in-house"
	SourceFromClient = "from client"
	SourceWeb        = "downloaded from the web"
	SourceStock      = "purchased from a stock library"

	AnswerYes     = "yes"
	AnswerNo      = "no"
	AnswerUnknown = "unknown"
)

var (
	ContentTypes   = []string{ContentImage, ContentVideo, ContentText, ContentMusic, ContentFont}
	Sources        = []string{SourceInHouse, SourceFromClient, SourceWeb, SourceStock}
	LicenseAnswers = []string{AnswerYes, AnswerNo, AnswerUnknown}
	SubjectAnswers = []string{AnswerYes, AnswerNo}
)

// Finding codes.
const (
	CodeIncompleteInput        = "incomplete_input"
	CodeClientLicenseRequired  = "client_license_required"
	CodeUnlicensedWebContent   = "unlicensed_web_content"
	CodeLicensePresent         = "license_present"
	CodeManualReview           = "manual_review"
	CodeSubjectReleaseRequired = "subject_release_required"
	CodeDerivativeWork         = "derivative_work"
	CodeTrademarkUse           = "trademark_use"
	CodeNoRiskIndicators       = "no_risk_indicators"
)
