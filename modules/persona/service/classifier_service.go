package service

import (
	"context"
	"sort"
	"strings"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	platformredis "github.com/andreypavlenko/crmcore/internal/platform/redis"
	"github.com/andreypavlenko/crmcore/internal/textnorm"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/andreypavlenko/crmcore/modules/persona/ports"
	"github.com/google/uuid"
)

// defaultPersonaName is returned alongside model.DefaultPersonaID when
// no keyword matches (spec §4.2).
const defaultPersonaName = "Mateo"

// reclassifyBatchSize bounds how many contacts the driver loads per
// ListForReclassification page.
const reclassifyBatchSize = 200

// ClassifierService implements the classify() contract (spec §4.2):
// normalizes a job title, substring-matches it against the cached
// keyword dictionary, and resolves conflicts by persona priority
// (lower number wins, ties broken by longer keyword then lexicographic
// order). Grounded on original_source/backend/routers/job_keywords.py
// for the keyword mutation/bulk-insert rules.
type ClassifierService struct {
	repo  ports.KeywordRepository
	rdb   *platformredis.Client
	log   *logger.Logger
	cache *keywordCache
}

func NewClassifierService(repo ports.KeywordRepository, rdb *platformredis.Client, log *logger.Logger) *ClassifierService {
	return &ClassifierService{
		repo:  repo,
		rdb:   rdb,
		log:   log,
		cache: newKeywordCache(),
	}
}

// StartInvalidationListener subscribes to the cross-process cache
// invalidation channel until ctx is cancelled. Call once at process
// startup after constructing the service.
func (s *ClassifierService) StartInvalidationListener(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	go subscribeInvalidation(ctx, s.rdb, s.cache, s.log)
}

func (s *ClassifierService) ensureFresh(ctx context.Context) error {
	_, _, stale := s.cache.snapshot()
	if !stale {
		return nil
	}

	keywords, err := s.repo.AllKeywords(ctx)
	if err != nil {
		return err
	}
	priorityRows, err := s.repo.AllPriorities(ctx)
	if err != nil {
		return err
	}

	priorities := make(map[string]int, len(priorityRows))
	for _, p := range priorityRows {
		priorities[p.PersonaID] = p.Priority
	}

	s.cache.store(keywords, priorities)
	return nil
}

// Classify implements the classify(job_title) contract. Substring
// matches every cached keyword against the normalized job title;
// among matches, the winning persona is the one with the lowest
// priority number, ties broken by longer keyword length then
// lexicographic keyword order (spec §4.2).
func (s *ClassifierService) Classify(ctx context.Context, jobTitle string) (*model.Classification, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	keywords, priorities, _ := s.cache.snapshot()

	normalized := textnorm.NormalizeJobTitle(jobTitle)

	var matches []model.Match
	for _, kw := range keywords {
		if kw.KeywordNormalized == "" {
			continue
		}
		if strings.Contains(normalized, kw.KeywordNormalized) {
			matches = append(matches, model.Match{
				Keyword:     kw.KeywordNormalized,
				PersonaID:   kw.PersonaID,
				PersonaName: kw.PersonaName,
				Priority:    priorities[kw.PersonaID],
			})
		}
	}

	if len(matches) == 0 {
		return &model.Classification{
			PersonaID:          model.DefaultPersonaID,
			PersonaDisplayName: defaultPersonaName,
			NormalizedJobTitle: normalized,
			IsDefault:          true,
		}, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority < matches[j].Priority
		}
		if len(matches[i].Keyword) != len(matches[j].Keyword) {
			return len(matches[i].Keyword) > len(matches[j].Keyword)
		}
		return matches[i].Keyword < matches[j].Keyword
	})

	winner := matches[0]
	matchedKeywords := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.PersonaID == winner.PersonaID {
			matchedKeywords = append(matchedKeywords, m.Keyword)
		}
	}

	return &model.Classification{
		PersonaID:          winner.PersonaID,
		PersonaDisplayName: winner.PersonaName,
		MatchedKeywords:    matchedKeywords,
		AllMatches:         matches,
		NormalizedJobTitle: normalized,
		IsDefault:          false,
	}, nil
}

// CreateKeyword inserts a new keyword-to-persona mapping. If the
// keyword is already owned by a persona whose priority is
// numerically lower-or-equal (equal or higher priority), the insert is
// rejected with ErrKeywordOwnedByHigherPriority; a strictly
// higher-numbered (lower priority) existing owner is replaced.
// Grounded on job_keywords.py's create_keyword endpoint.
func (s *ClassifierService) CreateKeyword(ctx context.Context, keywordRaw, personaID, personaName string) (*model.Keyword, bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(keywordRaw))
	if normalized == "" {
		return nil, false, model.ErrKeywordRequired
	}

	if err := s.ensureFresh(ctx); err != nil {
		return nil, false, err
	}
	_, priorities, _ := s.cache.snapshot()
	newPriority, hasNewPriority := priorities[personaID]

	existing, err := s.repo.GetByKeyword(ctx, normalized)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		kw := &model.Keyword{
			ID:                uuid.New().String(),
			KeywordNormalized: normalized,
			PersonaID:         personaID,
			PersonaName:       personaName,
		}
		if err := s.repo.Create(ctx, kw); err != nil {
			return nil, false, err
		}
		s.invalidate(ctx)
		return kw, true, nil
	}

	existingPriority := priorities[existing.PersonaID]
	if hasNewPriority && newPriority < existingPriority {
		existing.PersonaID = personaID
		existing.PersonaName = personaName
		if err := s.repo.Replace(ctx, existing); err != nil {
			return nil, false, err
		}
		s.invalidate(ctx)
		return existing, false, nil
	}

	return nil, false, model.ErrKeywordOwnedByHigherPriority
}

// BulkCreateResult tallies the outcome of a bulk keyword insertion.
type BulkCreateResult struct {
	Created  int
	Replaced int
	Skipped  int
}

// BulkCreateKeywords splits freeform text on commas, newlines, and
// semicolons (grounded on job_keywords.py's
// `keywords.replace('\n', ',').replace(';', ',')` normalization) and
// applies CreateKeyword's per-keyword rule to each non-blank token.
func (s *ClassifierService) BulkCreateKeywords(ctx context.Context, text, personaID, personaName string) (*BulkCreateResult, error) {
	normalized := strings.NewReplacer("\n", ",", ";", ",").Replace(text)
	tokens := strings.Split(normalized, ",")

	result := &BulkCreateResult{}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		_, created, err := s.CreateKeyword(ctx, tok, personaID, personaName)
		switch {
		case err == model.ErrKeywordOwnedByHigherPriority:
			result.Skipped++
		case err != nil:
			return result, err
		case created:
			result.Created++
		default:
			result.Replaced++
		}
	}
	return result, nil
}

func (s *ClassifierService) DeleteKeyword(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ClassifierService) ListKeywords(ctx context.Context, personaID string) ([]*model.Keyword, error) {
	return s.repo.List(ctx, personaID)
}

func (s *ClassifierService) invalidate(ctx context.Context) {
	s.cache.bump()
	publishInvalidation(ctx, s.rdb, s.log)
}

// ReclassificationDriver re-runs Classify against every contact
// eligible for reclassification (persona_locked = false), writing
// results through UpdatePersona. Idempotent: safe to re-run, since a
// contact whose classification hasn't changed gets the same persona
// written again; it issues one UpdatePersona per contact, changed or
// not (spec §4.2).
type ReclassificationDriver struct {
	classifier *ClassifierService
	contacts   contactsports.ContactRepository
	log        *logger.Logger
}

func NewReclassificationDriver(classifier *ClassifierService, contacts contactsports.ContactRepository, log *logger.Logger) *ReclassificationDriver {
	return &ReclassificationDriver{classifier: classifier, contacts: contacts, log: log}
}

// Run sweeps the full contacts table in id order, classifying and
// writing a persona for every row ListForReclassification returns.
func (d *ReclassificationDriver) Run(ctx context.Context) (int, error) {
	afterID := ""
	total := 0
	for {
		page, err := d.contacts.ListForReclassification(ctx, afterID, reclassifyBatchSize)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			return total, nil
		}

		for _, c := range page {
			jobTitle := ""
			if c.JobTitle != nil {
				jobTitle = *c.JobTitle
			}
			result, err := d.classifier.Classify(ctx, jobTitle)
			if err != nil {
				if d.log != nil {
					d.log.WithError("classify_failed").Warn("reclassification: classify failed for contact")
				}
				continue
			}
			if err := d.contacts.UpdatePersona(ctx, c.ID, result.PersonaID, result.PersonaDisplayName); err != nil {
				if d.log != nil {
					d.log.WithError("update_persona_failed").Warn("reclassification: failed to write persona")
				}
				continue
			}
			total++
			afterID = c.ID
		}

		if len(page) < reclassifyBatchSize {
			return total, nil
		}
	}
}
