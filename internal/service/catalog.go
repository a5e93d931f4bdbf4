package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/repository"
)

// Section management
func (s *DefaultService) CreateSection(ctx context.Context, req models.CreateSectionRequest) (*models.Section, error) {
	existing, err := s.repo.GetSectionByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("error checking section existence: %w", err)
	}
	if existing != nil {
		return nil, conflictError("Section already exists")
	}

	section := &models.Section{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.repo.CreateSection(ctx, section); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictError("Section already exists")
		}
		return nil, fmt.Errorf("error creating section: %w", err)
	}

	return section, nil
}

func (s *DefaultService) UpdateSection(ctx context.Context, sectionID string, req models.UpdateSectionRequest) (*models.Section, error) {
	section, err := s.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("error getting section: %w", err)
	}
	if section == nil {
		return nil, notFoundError("Section not found")
	}

	// Absent fields keep their current values
	if req.Name != "" {
		section.Name = req.Name
	}
	if req.Description != "" {
		section.Description = req.Description
	}

	if err := s.repo.UpdateSection(ctx, section); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundError("Section not found")
		case errors.Is(err, repository.ErrDuplicateName):
			return nil, conflictError("Section already exists")
		default:
			return nil, fmt.Errorf("error updating section: %w", err)
		}
	}

	return section, nil
}

func (s *DefaultService) DeleteSection(ctx context.Context, sectionID string) error {
	if _, err := uuid.Parse(sectionID); err != nil {
		return validationError("Invalid section ID")
	}

	err := s.repo.DeleteSection(ctx, sectionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError("Section not found")
	case errors.Is(err, repository.ErrSectionHasEbooks):
		return conflictError("Section has related ebooks")
	default:
		return fmt.Errorf("error deleting section: %w", err)
	}
}

func (s *DefaultService) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("error getting section: %w", err)
	}
	if section == nil {
		return nil, notFoundError("Section not found")
	}
	return section, nil
}

func (s *DefaultService) ListSections(ctx context.Context) ([]models.Section, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing sections: %w", err)
	}
	return sections, nil
}

// Ebook management
func (s *DefaultService) CreateEbook(ctx context.Context, req models.CreateEbookRequest) (*models.EbookView, error) {
	section, err := s.repo.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, fmt.Errorf("error checking section existence: %w", err)
	}
	if section == nil {
		return nil, validationError("Section does not exist")
	}

	existing, err := s.repo.GetEbookByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("error checking ebook existence: %w", err)
	}
	if existing != nil {
		return nil, conflictError("An e-book with the same name already exists")
	}

	ebook := &models.Ebook{
		Name:      req.Name,
		Content:   req.Content,
		Authors:   req.Authors,
		SectionID: sql.NullString{String: req.SectionID, Valid: true},
	}

	if err := s.repo.CreateEbook(ctx, ebook); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictError("An e-book with the same name already exists")
		}
		return nil, fmt.Errorf("error creating ebook: %w", err)
	}

	view := newEbookView(ebook)
	view.SectionName = section.Name
	return &view, nil
}

func (s *DefaultService) UpdateEbook(ctx context.Context, ebookID string, req models.UpdateEbookRequest) (*models.EbookView, error) {
	ebook, err := s.repo.GetEbook(ctx, ebookID)
	if err != nil {
		return nil, fmt.Errorf("error getting ebook: %w", err)
	}
	if ebook == nil {
		return nil, notFoundError("Ebook not found")
	}

	if req.SectionID != "" {
		section, err := s.repo.GetSection(ctx, req.SectionID)
		if err != nil {
			return nil, fmt.Errorf("error checking section existence: %w", err)
		}
		if section == nil {
			return nil, validationError("Section does not exist")
		}
		ebook.SectionID = sql.NullString{String: req.SectionID, Valid: true}
	}

	// Absent fields keep their current values
	if req.Name != "" {
		ebook.Name = req.Name
	}
	if req.Content != "" {
		ebook.Content = req.Content
	}
	if len(req.Authors) > 0 {
		ebook.Authors = req.Authors
	}

	if err := s.repo.UpdateEbook(ctx, ebook); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundError("Ebook not found")
		case errors.Is(err, repository.ErrDuplicateName):
			return nil, conflictError("An e-book with the same name already exists")
		default:
			return nil, fmt.Errorf("error updating ebook: %w", err)
		}
	}

	view := newEbookView(ebook)
	return &view, nil
}

func (s *DefaultService) DeleteEbook(ctx context.Context, ebookID string) error {
	if _, err := uuid.Parse(ebookID); err != nil {
		return validationError("Invalid ebook ID")
	}

	err := s.repo.DeleteEbook(ctx, ebookID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError("Ebook not found")
	case errors.Is(err, repository.ErrEbookIssued):
		return conflictError("Ebook is granted to a user")
	default:
		return fmt.Errorf("error deleting ebook: %w", err)
	}
}

func (s *DefaultService) RevokeEbook(ctx context.Context, ebookID string) (*models.EbookView, error) {
	err := s.repo.RevokeEbook(ctx, ebookID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFoundError("Ebook not found")
	case errors.Is(err, repository.ErrEbookNotIssued):
		return nil, conflictError("Ebook is not issued to anyone")
	default:
		return nil, fmt.Errorf("error revoking ebook: %w", err)
	}

	return s.GetEbook(ctx, ebookID)
}

func (s *DefaultService) GetEbook(ctx context.Context, ebookID string) (*models.EbookView, error) {
	ebook, err := s.repo.GetEbook(ctx, ebookID)
	if err != nil {
		return nil, fmt.Errorf("error getting ebook: %w", err)
	}
	if ebook == nil {
		return nil, notFoundError("Ebook not found")
	}

	view := newEbookView(ebook)
	if ebook.SectionID.Valid {
		section, err := s.repo.GetSection(ctx, ebook.SectionID.String)
		if err != nil {
			return nil, fmt.Errorf("error getting section: %w", err)
		}
		if section != nil {
			view.SectionName = section.Name
		}
	}

	return &view, nil
}

func (s *DefaultService) ListEbooks(ctx context.Context) ([]models.EbookView, error) {
	ebooks, err := s.repo.ListEbooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing ebooks: %w", err)
	}

	sectionNames, err := s.sectionNames(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.EbookView, 0, len(ebooks))
	for i := range ebooks {
		view := newEbookView(&ebooks[i])
		if ebooks[i].SectionID.Valid {
			view.SectionName = sectionNames[ebooks[i].SectionID.String]
		}
		views = append(views, view)
	}

	return views, nil
}

// sectionNames fetches the id→name mapping used when resolving section
// references into response projections.
func (s *DefaultService) sectionNames(ctx context.Context) (map[string]string, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing sections: %w", err)
	}

	names := make(map[string]string, len(sections))
	for _, section := range sections {
		names[section.ID] = section.Name
	}
	return names, nil
}

// newEbookView flattens an Ebook row into its JSON projection.
func newEbookView(ebook *models.Ebook) models.EbookView {
	view := models.EbookView{
		ID:      ebook.ID,
		Name:    ebook.Name,
		Content: ebook.Content,
		Authors: ebook.Authors,
	}

	if ebook.SectionID.Valid {
		sectionID := ebook.SectionID.String
		view.SectionID = &sectionID
	}
	if ebook.IssuedTo.Valid {
		issuedTo := ebook.IssuedTo.String
		view.IssuedTo = &issuedTo
	}
	if ebook.DateIssued.Valid {
		dateIssued := ebook.DateIssued.Time
		view.DateIssued = &dateIssued
	}
	if ebook.ReturnDate.Valid {
		returnDate := ebook.ReturnDate.Time
		view.ReturnDate = &returnDate
	}

	return view
}
