package notify

import (
	"fmt"

	"github.com/ternarybob/casebot/internal/models"
)

// User-facing texts for the agreement conversation
const (
	WelcomeBack = "Welcome back! You have already accepted the user agreement.\n" +
		"You can upload a PDF file for analysis."

	AgreementText = "Welcome to Casebot!\n\n" +
		"Before using the service, please read and accept the user agreement.\n" +
		"Key terms:\n" +
		"1. The service analyses political case documents in PDF format.\n" +
		"2. By uploading a document you confirm you have the right to use and analyse it.\n" +
		"3. The analysis is produced by an AI model and is advisory only.\n" +
		"4. Uploaded documents are deleted after processing and are not stored.\n" +
		"5. We aim to keep your data confidential but cannot be held responsible for leaks caused by third parties or vulnerabilities outside our control.\n\n" +
		"Accepting means you agree to these terms."

	AgreementAccepted = "Thank you! You have accepted the user agreement.\n" +
		"You can now upload PDF files for analysis."

	AgreementDeclined = "You declined the user agreement. The service cannot be used without accepting it.\n" +
		"If you change your mind, start again and accept the agreement."

	AgreementRequired = "Please accept the user agreement before uploading documents."

	Cancelled = "Operation cancelled. Start again to continue."

	Help = "This service analyses political case documents in PDF format.\n" +
		"1. Start and accept the user agreement.\n" +
		"2. Upload a PDF file.\n" +
		"3. The document is analysed and a report is sent back to you.\n\n" +
		"Actions:\n" +
		"start - begin and review the user agreement\n" +
		"help - show this message\n" +
		"cancel - withdraw your agreement and cancel the current operation"
)

// Progress texts sent while a submission moves through the pipeline
const (
	FileAccepted     = "✅ Your file was uploaded successfully. Analysis is starting, this may take a few minutes."
	AnalysisStarted  = "🔍 Analysis of the uploaded case has started. We are reviewing the document."
	ReportGenerating = "⏳ Analysis complete, the report is being prepared. This will only take a few seconds."
)

// ReportCaption accompanies the delivered report
func ReportCaption(originalFilename string) string {
	return fmt.Sprintf("📄 Your report for the document '%s' is ready.", originalFilename)
}

// FailureMessage returns the text shown to the user for a failure category.
// detail is shown only for upload and processing failures.
func FailureMessage(category models.FailureCategory, detail, backend string) string {
	switch category {
	case models.CategoryUploadError:
		if detail == "" {
			detail = "Make sure the file is a PDF and does not exceed the size limit."
		}
		return "❌ File upload error. " + detail
	case models.CategoryProcessingError:
		if detail == "" {
			detail = "The PDF may contain only images or too little text. Try a file with text content."
		}
		return "⚠️ Error while processing the file. " + detail
	case models.CategoryAIServiceError:
		if backend == "" {
			backend = "AI"
		}
		return fmt.Sprintf("⚠️ An error occurred while analysing the case with %s. Please try again later. "+
			"If the problem persists, contact technical support.", backend)
	case models.CategoryReportError:
		return "⚠️ The report could not be created. Please try again or contact support."
	case models.CategoryDeliveryError:
		return "⚠️ The finished report could not be sent. Please contact support."
	case models.CategoryAgreementRequired:
		return AgreementRequired
	default:
		return "⚠️ An unexpected error occurred while processing your document. We are looking into it."
	}
}
