package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

const (
	chunkSize    = 300 // palavras por trecho
	chunkOverlap = 50
	topK         = 3
	minScore     = 0.1
	maxChunkLen  = 1500 // caracteres por trecho na resposta
)

// chunk é um trecho indexado de um documento da base de conhecimento
type chunk struct {
	filename string
	text     string
	terms    map[string]int
}

// truncateChunk limita o trecho citado na resposta sem cortar uma
// sequência UTF-8 no meio
func truncateChunk(text string) string {
	if len(text) <= maxChunkLen {
		return text
	}

	cut := maxChunkLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Response é a resposta do assistente a uma pergunta
type Response struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence string   `json:"confidence"`
	Method     string   `json:"method"`
}

// Assistant responde perguntas agronômicas combinando a base de conhecimento
// local com a telemetria ao vivo do pipeline
type Assistant struct {
	knowledgeDir string
	chunks       []chunk
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)
var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// New carrega e indexa os documentos markdown do diretório de conhecimento
func New(knowledgeDir string) *Assistant {
	a := &Assistant{knowledgeDir: knowledgeDir}
	indexed := a.loadDocuments()
	logger.Infof("Base de conhecimento indexada: %d trechos", indexed)
	return a
}

// loadDocuments lê os arquivos *.md e divide cada um em trechos sobrepostos
func (a *Assistant) loadDocuments() int {
	entries, err := filepath.Glob(filepath.Join(a.knowledgeDir, "*.md"))
	if err != nil || len(entries) == 0 {
		return 0
	}
	sort.Strings(entries)

	for _, path := range entries {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warnf("Erro ao ler documento %s: %v", path, err)
			continue
		}

		for _, text := range splitText(string(content)) {
			a.chunks = append(a.chunks, chunk{
				filename: filepath.Base(path),
				text:     text,
				terms:    termFrequency(text),
			})
		}
	}
	return len(a.chunks)
}

// splitText divide o texto em trechos de até chunkSize palavras, mantendo
// sobreposição entre trechos consecutivos
func splitText(text string) []string {
	sentences := sentenceSplit.Split(text, -1)
	var chunks []string
	var current []string
	length := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		words := len(strings.Fields(sentence))
		if length+words > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			// Mantém a metade final do trecho anterior como sobreposição
			current = current[len(current)/2:]
			length = 0
			for _, s := range current {
				length += len(strings.Fields(s))
			}
		}
		current = append(current, sentence)
		length += words
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// termFrequency conta os termos normalizados de um texto
func termFrequency(text string) map[string]int {
	terms := make(map[string]int)
	for _, word := range wordSplit.Split(strings.ToLower(text), -1) {
		if len(word) < 3 {
			continue
		}
		terms[word]++
	}
	return terms
}

// retrieve devolve os trechos mais relevantes para a pergunta, pontuados
// por sobreposição de termos
func (a *Assistant) retrieve(question string) []chunk {
	questionTerms := termFrequency(question)
	if len(questionTerms) == 0 || len(a.chunks) == 0 {
		return nil
	}

	type scored struct {
		chunk chunk
		score float64
	}
	results := make([]scored, 0, len(a.chunks))

	for _, c := range a.chunks {
		matches := 0
		for term := range questionTerms {
			if _, ok := c.terms[term]; ok {
				matches++
			}
		}
		score := float64(matches) / float64(len(questionTerms))
		if score > minScore {
			results = append(results, scored{chunk: c, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]chunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
	}
	return out
}

// Answer responde uma pergunta usando a base de conhecimento e, quando
// disponível, a telemetria ao vivo do pipeline
func (a *Assistant) Answer(question string, live *models.Telemetry) Response {
	chunks := a.retrieve(question)
	sources := make([]string, 0, len(chunks))
	seen := make(map[string]bool)
	for _, c := range chunks {
		if !seen[c.filename] {
			sources = append(sources, c.filename)
			seen[c.filename] = true
		}
	}

	riskLevel := "UNKNOWN"
	riskScore := "N/A"
	crop := "crop"
	reasoning := "Risk influenced by current environmental conditions."
	actionText := "Continue monitoring and inspect canopy closely."

	if live != nil {
		riskLevel = live.RiskLevel
		riskScore = fmt.Sprintf("%d", live.RiskScore)
		if live.CropType != "" {
			crop = live.CropType
		}
		if len(live.Reasons) > 0 {
			reasoning = strings.Join(firstN(live.Reasons, 2), " ")
		}
		if len(live.SuggestedActions) > 0 {
			actionText = strings.Join(firstN(live.SuggestedActions, 2), " ")
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "For your %s: Disease risk is **%s** (score: %s/100). ", crop, riskLevel, riskScore)
	fmt.Fprintf(&sb, "\n\nWhy: %s ", reasoning)
	fmt.Fprintf(&sb, "\n\nAction: %s", actionText)

	if len(chunks) > 0 {
		sb.WriteString("\n\nFrom the knowledge base:")
		for _, c := range chunks {
			fmt.Fprintf(&sb, "\n- [%s] %s", c.filename, truncateChunk(c.text))
		}
	}

	return Response{
		Answer:     sb.String(),
		Sources:    sources,
		Confidence: "medium",
		Method:     "rule-based",
	}
}

func firstN(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
