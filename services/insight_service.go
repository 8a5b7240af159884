package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"

	"performance-review-api/config"
	"performance-review-api/models"
	"performance-review-api/utils"

	"gorm.io/gorm"
)

// NoCompletedCycleMessage is returned when there is no closed or published
// cycle to summarise. Not an error: the dashboard renders it as-is.
const NoCompletedCycleMessage = "Nenhum ciclo concluído encontrado."

// Final scores at or above this mark count as top performers.
const topPerformerThreshold = 4.5

// TextGenerator produces the narrative summary from an aggregate prompt.
type TextGenerator interface {
	GenerateNarrative(ctx context.Context, prompt string) (string, error)
}

// insightCache holds the single generated narrative, keyed by cycle id.
// Eviction policy is replace-on-newer-key: a new completed cycle overwrites
// the previous entry.
type insightCache struct {
	mu      sync.RWMutex
	cycleID int
	text    string
}

func (c *insightCache) get(cycleID int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cycleID == cycleID && c.text != "" {
		return c.text, true
	}
	return "", false
}

func (c *insightCache) set(cycleID int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycleID = cycleID
	c.text = text
}

// InsightService computes per-cycle aggregate statistics and obtains the
// "brutal facts" narrative from the text-generation collaborator.
type InsightService struct {
	db        *gorm.DB
	query     *CycleQueryService
	generator TextGenerator
	cache     insightCache
}

// NewInsightService instantiates the service. The generator may be nil, in
// which case the default Gemini client is used.
func NewInsightService(db *gorm.DB, generator TextGenerator) *InsightService {
	if db == nil {
		db = config.DB
	}
	if generator == nil {
		generator = NewGeminiClient()
	}
	return &InsightService{
		db:        db,
		query:     NewCycleQueryService(db),
		generator: generator,
	}
}

// CollaboratorScores is one collaborator's aggregate view for a cycle.
type CollaboratorScores struct {
	UserID         int      `json:"user_id"`
	Name           string   `json:"name"`
	FinalScore     float64  `json:"final_score"`
	SelfAverage    *float64 `json:"self_average,omitempty"`
	ManagerAverage *float64 `json:"manager_average,omitempty"`
	PeerAverage    *float64 `json:"peer_average,omitempty"`
}

// CohortStats summarises a completed cycle across all evaluated
// collaborators. Averages are means of per-collaborator means, formatted to
// one decimal.
type CohortStats struct {
	SelfAverage    string `json:"self_average"`
	ManagerAverage string `json:"manager_average"`
	PeerAverage    string `json:"peer_average"`
	FinalAverage   string `json:"final_average"`
	TotalEvaluated int    `json:"total_evaluated"`
	TopPerformers  int    `json:"top_performers"`
}

// CycleInsight is the full brutal-facts payload for one completed cycle.
type CycleInsight struct {
	CycleID       int                  `json:"cycle_id,omitempty"`
	CycleName     string               `json:"cycle_name,omitempty"`
	Narrative     string               `json:"narrative"`
	Stats         *CohortStats         `json:"stats,omitempty"`
	Collaborators []CollaboratorScores `json:"collaborators,omitempty"`
}

// HistoricalAverage is one chart point of final-score averages per cycle.
type HistoricalAverage struct {
	CycleID      int     `json:"cycle_id"`
	CycleName    string  `json:"cycle_name"`
	FinalAverage float64 `json:"final_average"`
}

// GetInsightForLastCompletedCycle aggregates the most recently completed
// cycle and returns its narrative. The narrative is cached per cycle id; the
// generator is only invoked again when a newer completed cycle appears.
func (s *InsightService) GetInsightForLastCompletedCycle(ctx context.Context) (*CycleInsight, error) {
	cycle, err := s.query.LastCompletedCycle()
	if err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return &CycleInsight{Narrative: NoCompletedCycleMessage}, nil
		}
		return nil, err
	}

	collaborators, err := s.collectCollaboratorScores(cycle.CycleID)
	if err != nil {
		return nil, err
	}
	stats := buildCohortStats(collaborators)

	insight := &CycleInsight{
		CycleID:       cycle.CycleID,
		CycleName:     cycle.Name,
		Stats:         &stats,
		Collaborators: collaborators,
	}

	if cached, ok := s.cache.get(cycle.CycleID); ok {
		insight.Narrative = cached
		return insight, nil
	}

	prompt := buildInsightPrompt(cycle, collaborators, stats)
	narrative, err := s.generator.GenerateNarrative(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate insight narrative: %w", err)
	}

	s.cache.set(cycle.CycleID, narrative)
	insight.Narrative = narrative
	return insight, nil
}

// HistoricalFinalAverages returns per-cycle final-score averages across all
// completed cycles, oldest first, for the dashboard trend chart.
func (s *InsightService) HistoricalFinalAverages() ([]HistoricalAverage, error) {
	cycles, err := s.query.ClosedCycles()
	if err != nil {
		return nil, err
	}

	history := make([]HistoricalAverage, 0, len(cycles))
	for i := len(cycles) - 1; i >= 0; i-- {
		cycle := cycles[i]
		scores, err := s.decryptedFinalScores(cycle.CycleID)
		if err != nil {
			return nil, err
		}
		history = append(history, HistoricalAverage{
			CycleID:      cycle.CycleID,
			CycleName:    cycle.Name,
			FinalAverage: roundOneDecimal(mean(scores)),
		})
	}
	return history, nil
}

func (s *InsightService) decryptedFinalScores(cycleID int) ([]float64, error) {
	var rows []models.FinalScore
	if err := s.db.Where("cycle_id = ?", cycleID).Find(&rows).Error; err != nil {
		return nil, err
	}

	scores := make([]float64, 0, len(rows))
	for _, row := range rows {
		if value, ok := decryptScore(row.FinalScore); ok {
			scores = append(scores, value)
		}
	}
	return scores, nil
}

func (s *InsightService) collectCollaboratorScores(cycleID int) ([]CollaboratorScores, error) {
	var finalScores []models.FinalScore
	err := s.db.Preload("User").Where("cycle_id = ?", cycleID).Find(&finalScores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load final scores of cycle %d: %w", cycleID, err)
	}

	collaborators := make([]CollaboratorScores, 0, len(finalScores))
	for _, fs := range finalScores {
		user := fs.User
		if user == nil || user.RoleID != models.RoleCollaborator || !user.IsActive || user.DeleteAt != nil {
			continue
		}

		value, ok := decryptScore(fs.FinalScore)
		if !ok {
			log.Printf("insight: skipping unreadable final score %d", fs.FinalScoreID)
			continue
		}

		entry := CollaboratorScores{
			UserID:     user.UserID,
			Name:       user.FullName(),
			FinalScore: value,
		}

		selfAvg, err := s.selfItemAverage(cycleID, user.UserID)
		if err != nil {
			return nil, err
		}
		entry.SelfAverage = selfAvg

		managerAvg, err := s.managerItemAverage(cycleID, user.UserID)
		if err != nil {
			return nil, err
		}
		entry.ManagerAverage = managerAvg

		peerAvg, err := s.peerScoreAverage(cycleID, user.UserID)
		if err != nil {
			return nil, err
		}
		entry.PeerAverage = peerAvg

		collaborators = append(collaborators, entry)
	}

	return collaborators, nil
}

func (s *InsightService) selfItemAverage(cycleID, userID int) (*float64, error) {
	var evaluations []models.SelfEvaluation
	err := s.db.Preload("Items").Where("cycle_id = ? AND user_id = ?", cycleID, userID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}

	var scores []float64
	for _, eval := range evaluations {
		for _, item := range eval.Items {
			scores = append(scores, float64(item.Score))
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}
	avg := mean(scores)
	return &avg, nil
}

func (s *InsightService) managerItemAverage(cycleID, userID int) (*float64, error) {
	var evaluations []models.ManagerEvaluation
	err := s.db.Preload("Items").Where("cycle_id = ? AND evaluatee_id = ?", cycleID, userID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}

	var scores []float64
	for _, eval := range evaluations {
		for _, item := range eval.Items {
			scores = append(scores, float64(item.Score))
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}
	avg := mean(scores)
	return &avg, nil
}

func (s *InsightService) peerScoreAverage(cycleID, userID int) (*float64, error) {
	var evaluations []models.PeerEvaluation
	err := s.db.Where("cycle_id = ? AND evaluatee_id = ?", cycleID, userID).Find(&evaluations).Error
	if err != nil {
		return nil, err
	}

	if len(evaluations) == 0 {
		return nil, nil
	}
	scores := make([]float64, 0, len(evaluations))
	for _, eval := range evaluations {
		scores = append(scores, eval.Score)
	}
	avg := mean(scores)
	return &avg, nil
}

func buildCohortStats(collaborators []CollaboratorScores) CohortStats {
	var selfMeans, managerMeans, peerMeans, finals []float64
	topPerformers := 0

	for _, entry := range collaborators {
		if entry.SelfAverage != nil {
			selfMeans = append(selfMeans, *entry.SelfAverage)
		}
		if entry.ManagerAverage != nil {
			managerMeans = append(managerMeans, *entry.ManagerAverage)
		}
		if entry.PeerAverage != nil {
			peerMeans = append(peerMeans, *entry.PeerAverage)
		}
		finals = append(finals, entry.FinalScore)
		if entry.FinalScore >= topPerformerThreshold {
			topPerformers++
		}
	}

	return CohortStats{
		SelfAverage:    formatOneDecimal(mean(selfMeans)),
		ManagerAverage: formatOneDecimal(mean(managerMeans)),
		PeerAverage:    formatOneDecimal(mean(peerMeans)),
		FinalAverage:   formatOneDecimal(mean(finals)),
		TotalEvaluated: len(collaborators),
		TopPerformers:  topPerformers,
	}
}

func buildInsightPrompt(cycle *models.EvaluationCycle, collaborators []CollaboratorScores, stats CohortStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Você é um analista de RH. Gere um resumo executivo e direto (\"brutal facts\") do ciclo de avaliação %q.\n\n", cycle.Name)
	fmt.Fprintf(&b, "Colaboradores avaliados: %d\n", stats.TotalEvaluated)
	fmt.Fprintf(&b, "Nota final média: %s\n", stats.FinalAverage)
	fmt.Fprintf(&b, "Média de autoavaliação: %s\n", stats.SelfAverage)
	fmt.Fprintf(&b, "Média de avaliação de gestores: %s\n", stats.ManagerAverage)
	fmt.Fprintf(&b, "Média de avaliação 360: %s\n", stats.PeerAverage)
	fmt.Fprintf(&b, "Destaques (nota final >= %.1f): %d\n\n", topPerformerThreshold, stats.TopPerformers)

	b.WriteString("Notas finais individuais:\n")
	for _, entry := range collaborators {
		fmt.Fprintf(&b, "- %s: %.1f\n", entry.Name, entry.FinalScore)
	}

	b.WriteString("\nEscreva no máximo três parágrafos, em português, sem listas, apontando pontos fortes, riscos e recomendações.")
	return b.String()
}

func decryptScore(ciphertext string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(utils.DecryptField(ciphertext)), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// mean returns the unweighted average; an empty slice yields 0.0.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(roundOneDecimal(v), 'f', 1, 64)
}
