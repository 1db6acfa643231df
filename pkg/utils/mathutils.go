package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Round2 arredonda um valor para 2 casas decimais
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Round3 arredonda um valor para 3 casas decimais
func Round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// Clamp limita um valor ao intervalo [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt limita um valor inteiro ao intervalo [min, max]
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// FormatFloat formata um float com precisão específica, removendo zeros à direita
func FormatFloat(value float64, precision int) string {
	format := "%." + strconv.Itoa(precision) + "f"
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf(format, value), "0"), ".")
}
