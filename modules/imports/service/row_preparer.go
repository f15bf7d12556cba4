package service

import (
	"context"
	"strings"

	"github.com/andreypavlenko/crmcore/internal/errkind"
	"github.com/andreypavlenko/crmcore/internal/textnorm"
	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	personaservice "github.com/andreypavlenko/crmcore/modules/persona/service"
)

// rowPreparer turns one raw CSV row into a contactmodel.PreparedRow,
// recording validation and per-field parse outcomes along the way
// (spec §4.3 step 5, §6 field formats).
type rowPreparer struct {
	mapping    map[string]string // field -> CSV header
	classifier *personaservice.ClassifierService
	profile    string
}

func newRowPreparer(mapping map[string]string, classifier *personaservice.ClassifierService, profile string) *rowPreparer {
	return &rowPreparer{mapping: mapping, classifier: classifier, profile: profile}
}

func (p *rowPreparer) field(row CSVRow, name string) string {
	header, ok := p.mapping[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Fields[header])
}

func (p *rowPreparer) prepare(ctx context.Context, row CSVRow) (*PrepareResult, error) {
	result := &PrepareResult{}

	firstName := p.field(row, "first_name")
	lastName := p.field(row, "last_name")
	fullName := p.field(row, "name")
	if fullName == "" {
		fullName = strings.TrimSpace(firstName + " " + lastName)
	}

	rawEmail := p.field(row, "email")
	rawURL := p.field(row, "linkedin_url")
	rawTitle := p.field(row, "job_title")
	rawCompany := p.field(row, "company")
	rawConnectedOn := p.field(row, "connected_on")

	prepared := &contactmodel.PreparedRow{
		RowNumber:     row.Number,
		FirstName:     firstName,
		LastName:      lastName,
		Name:          fullName,
		SourceProfile: p.profile,
	}

	var linkedInNorm *string
	if rawURL != "" {
		normalized, err := textnorm.NormalizeLinkedInURL(rawURL)
		if err != nil {
			result.ParseFailures = append(result.ParseFailures, ParseFailureDetail{
				ReasonCode: errkind.ReasonLinkedInURLParse,
				Detail:     err.Error(),
			})
		} else {
			linkedInNorm = &normalized
			prepared.LinkedInURL = &rawURL
			prepared.LinkedInURLNorm = &normalized
		}
	}

	var normalizedEmail *string
	if rawEmail != "" {
		normalized, ok := textnorm.NormalizeEmail(rawEmail)
		if !ok {
			result.ParseFailures = append(result.ParseFailures, ParseFailureDetail{
				ReasonCode: errkind.ReasonEmailParse,
				Detail:     "malformed email: " + rawEmail,
			})
		} else {
			normalizedEmail = &normalized
			prepared.Email = &normalized
		}
	}

	if rawTitle != "" {
		prepared.JobTitle = &rawTitle
		norm := textnorm.NormalizeJobTitle(rawTitle)
		prepared.JobTitleNormalized = &norm
		if p.classifier != nil {
			classification, err := p.classifier.Classify(ctx, rawTitle)
			if err == nil {
				prepared.PersonaID = classification.PersonaID
				prepared.PersonaName = classification.PersonaDisplayName
			}
		}
	}

	if rawCompany != "" {
		prepared.RawCompanyName = &rawCompany
	}

	if rawConnectedOn != "" {
		parsed, err := textnorm.ParseConnectedOn(rawConnectedOn)
		if err != nil {
			result.ParseFailures = append(result.ParseFailures, ParseFailureDetail{
				ReasonCode: errkind.ReasonConnectedOnParse,
				Detail:     err.Error(),
			})
		} else {
			prepared.ConnectedOn = &parsed
		}
	}

	// spec §4.3 step 5: invalid if neither a name nor a normalized URL.
	if fullName == "" && linkedInNorm == nil {
		result.Invalid = true
		result.InvalidReason = errkind.ReasonMissingIdentifiers
		return result, nil
	}

	result.Row = prepared
	return result, nil
}
