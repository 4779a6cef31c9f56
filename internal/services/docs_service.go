package services

import (
	"bytes"
	"fmt"
	"strings"

	"rentals/internal/domain/models"
	"rentals/internal/repositories"
	"rentals/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the tenancy agreement document. Loader is injectable
// so tests can skip the database.
type DocsService struct {
	UserRepo     repositories.UserRepository
	PropertyRepo repositories.PropertyRepository
	RequestID    string
	Loader       func(a models.Agreement) (agreementDocData, error)
}

type agreementDocData struct {
	Agreement     models.Agreement
	TenantName    string
	OwnerName     string
	PropertyTitle string
}

// GenerateAgreementDoc returns the rendered PDF and a filename.
func (s DocsService) GenerateAgreementDoc(a models.Agreement) ([]byte, string, error) {
	data, err := s.loadDocData(a)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_agreement", "agreement_id="+a.ID)
	return buildAgreementPDF(data)
}

func (s DocsService) loadDocData(a models.Agreement) (agreementDocData, error) {
	if s.Loader != nil {
		return s.Loader(a)
	}

	data := agreementDocData{Agreement: a}
	if tenant, err := s.UserRepo.GetByID(a.TenantID); err == nil {
		data.TenantName = tenant.Name
	}
	if owner, err := s.UserRepo.GetByID(a.OwnerID); err == nil {
		data.OwnerName = owner.Name
	}
	if prop, err := s.PropertyRepo.GetByID(a.PropertyID); err == nil {
		data.PropertyTitle = prop.Title
	}
	return data, nil
}

func buildAgreementPDF(data agreementDocData) ([]byte, string, error) {
	a := data.Agreement

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "TENANCY AGREEMENT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Reference: "+a.ID, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	row := func(label, value string) {
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	section("Parties")
	row("Owner", nameOr(data.OwnerName, a.OwnerID))
	row("Tenant", nameOr(data.TenantName, a.TenantID))
	row("Property", nameOr(data.PropertyTitle, a.PropertyID))
	pdf.Ln(4)

	section("Terms")
	row("Rent", fmt.Sprintf("NGN %s per %s", utils.FormatMoney(a.RentAmount), a.RentPeriod))
	if a.CautionDeposit > 0 {
		row("Caution deposit", "NGN "+utils.FormatMoney(a.CautionDeposit))
	}
	row("Period", a.StartDate+" to "+a.EndDate)
	if strings.TrimSpace(a.AdditionalTerms) != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 6, a.AdditionalTerms, "", "L", false)
	}
	pdf.Ln(4)

	section("Signatures")
	if a.TenantSignedAt != nil {
		row("Tenant signed", a.TenantSignedAt.Format("2006-01-02 15:04 MST"))
	}
	if a.OwnerSignedAt != nil {
		row("Owner signed", a.OwnerSignedAt.Format("2006-01-02 15:04 MST"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := "agreement-" + a.ID + ".pdf"
	return buf.Bytes(), filename, nil
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fallback
}
