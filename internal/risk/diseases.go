package risk

// diseaseProfile descreve a doença mais provável para uma cultura sob
// janela fúngica, com a confiança base e as recomendações específicas
type diseaseProfile struct {
	disease     string
	confidence  int
	suggestions []string
}

// Perfis de doença por cultura, aplicados quando a janela fúngica está aberta
var diseaseProfiles = map[string]diseaseProfile{
	"tomato": {
		disease:    "Early blight (Alternaria) risk",
		confidence: 72,
		suggestions: []string{
			"Remove infected lower leaves and sanitize tools after handling plants.",
			"Use preventive fungicide strategy with active ingredient rotation.",
			"Avoid overhead irrigation in late afternoon and evening.",
		},
	},
	"potato": {
		disease:    "Late blight risk",
		confidence: 76,
		suggestions: []string{
			"Start preventive blight spray schedule based on local advisory guidance.",
			"Improve field drainage and avoid dense canopy humidity pockets.",
			"Scout high-risk zones twice daily after rainfall windows.",
		},
	},
	"rice": {
		disease:    "Rice blast risk",
		confidence: 74,
		suggestions: []string{
			"Avoid excess nitrogen applications during high-risk humid windows.",
			"Maintain optimal spacing and water management to limit prolonged wetness.",
			"Apply targeted fungicide only when threshold is confirmed by local guidelines.",
		},
	},
	"wheat": {
		disease:    "Leaf rust risk",
		confidence: 68,
		suggestions: []string{
			"Increase scouting around dense and shaded sections of the field.",
			"Prioritize resistant varieties and timely foliar protection if thresholds are met.",
			"Avoid unnecessary late irrigation that increases canopy humidity.",
		},
	},
	"maize": {
		disease:    "Northern leaf blight risk",
		confidence: 64,
		suggestions: []string{
			"Scout for elongated gray-green lesions in lower to mid canopy.",
			"Improve residue management and maintain field airflow.",
			"Use targeted fungicide only if disease pressure escalates and thresholds are met.",
		},
	},
}

// Diagnóstico genérico quando nenhuma janela fúngica está aberta
const generalDiagnosis = "General moisture stress"

var generalSuggestions = []string{
	"Inspect the lower canopy for early lesions and discoloration.",
	"Reduce prolonged leaf wetness by improving airflow and irrigation timing.",
}

// Diagnóstico de contingência para culturas sem perfil conhecido sob score alto
const fallbackDiagnosis = "Fungal disease complex risk"

// Ajuste de score por cultura; culturas desconhecidas recebem o valor padrão
var cropAdjustments = map[string]int{
	"rice":   8,
	"tomato": 8,
	"potato": 6,
	"wheat":  4,
	"maize":  3,
	"cotton": 4,
}

const defaultCropAdjustment = 2
