package dummydb

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateAssessment(ass assessment.Assessment) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assessments[ass.ID]; ok {
		return assessment.Assessment{}, errors.Errorf("assessment %q: %v", ass.ID, errDuplicateKey)
	}
	repo.db.assessments[ass.ID] = &ass
	return ass, nil
}

func (repo *assessmentRepository) QueryAssessmentsByCourse(courseID string) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asses := make([]assessment.Assessment, 0)
	for _, ass := range repo.db.assessments {
		if ass.CourseID == courseID {
			asses = append(asses, *ass)
		}
	}
	sort.Slice(asses, func(i, j int) bool { return asses[i].CreatedAt.Before(asses[j].CreatedAt) })
	return asses, nil
}

func (repo *assessmentRepository) GetAssessment(id string) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ass, ok := repo.db.assessments[id]; ok {
		return *ass, nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) DeleteAssessment(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.deleteAssessment(id)
	return nil
}

func (repo *assessmentRepository) CreateResult(res assessment.Result) (assessment.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.results[res.ID]; ok {
		return assessment.Result{}, errors.Errorf("result %q: %v", res.ID, errDuplicateKey)
	}
	repo.db.results[res.ID] = &res
	return res, nil
}

func (repo *assessmentRepository) QueryResultsByUser(userID string) ([]assessment.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]assessment.Result, 0)
	for _, res := range repo.db.results {
		if res.UserID == userID {
			results = append(results, *res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].AttemptDate.Before(results[j].AttemptDate) })
	return results, nil
}

func (repo *assessmentRepository) QueryResultsByAssessment(assessmentID string) ([]assessment.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]assessment.Result, 0)
	for _, res := range repo.db.results {
		if res.AssessmentID == assessmentID {
			results = append(results, *res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].AttemptDate.Before(results[j].AttemptDate) })
	return results, nil
}
