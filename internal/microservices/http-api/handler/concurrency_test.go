package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/suite"
)

// ReviewLoadSuite posts reviews from many clients at once and checks the
// title rating once they have all landed.
type ReviewLoadSuite struct {
	suite.Suite
	api   *apiEnv
	title *models.Title
}

func (s *ReviewLoadSuite) SetupTest() {
	s.api = newAPI(s.T())
	s.title = &models.Title{Name: "Load test", Year: 2000}
	s.Require().NoError(s.api.titles.Create(context.Background(), s.title))
}

func (s *ReviewLoadSuite) TestConcurrentReviews_20Clients() {
	s.postConcurrently(20)
}

func (s *ReviewLoadSuite) TestConcurrentReviews_50Clients() {
	s.postConcurrently(50)
}

func (s *ReviewLoadSuite) postConcurrently(clients int) {
	tokens := make([]string, clients)
	for i := range tokens {
		tokens[i] = s.api.login(s.T(), fmt.Sprintf("reader%d", i), models.RoleUser)
	}

	path := fmt.Sprintf("/api/v1/titles/%d/reviews/", s.title.ID)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    int
		statuses = make(map[int]int)
	)
	for i, token := range tokens {
		token := token
		score := i%10 + 1
		total += score
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := s.api.do(http.MethodPost, path, token, map[string]any{"text": "concurrent", "score": score})
			mu.Lock()
			statuses[w.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(map[int]int{http.StatusCreated: clients}, statuses)

	title, err := s.api.titles.FindByID(context.Background(), s.title.ID)
	s.Require().NoError(err)
	s.Require().NotNil(title.Rating)
	s.Equal(total/clients, *title.Rating)
}

func (s *ReviewLoadSuite) TestSameAuthorRace() {
	token := s.api.login(s.T(), "eager", models.RoleUser)
	path := fmt.Sprintf("/api/v1/titles/%d/reviews/", s.title.ID)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := s.api.do(http.MethodPost, path, token, map[string]any{"text": "me first", "score": 7})
			if w.Code == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	title, err := s.api.titles.FindByID(context.Background(), s.title.ID)
	s.Require().NoError(err)
	s.Require().NotNil(title.Rating)
	s.Equal(7, *title.Rating)
}

func TestReviewLoadSuite(t *testing.T) {
	suite.Run(t, new(ReviewLoadSuite))
}
