package quiz

import "github.com/victornm/asking/internal/domain"

// DefaultBank returns the built-in question pool.
func DefaultBank() *Bank {
	b, err := NewBank(defaultQuestions)
	if err != nil {
		panic(err)
	}
	return b
}

var defaultQuestions = []domain.Question{
	{Text: "¿Quién pintó la Mona Lisa?", Options: []string{"Leonardo da Vinci", "Pablo Picasso", "Vincent van Gogh"}, CorrectAnswer: "Leonardo da Vinci"},
	{Text: "¿Cuál es el planeta más grande del sistema solar?", Options: []string{"Marte", "Júpiter", "Saturno"}, CorrectAnswer: "Júpiter"},
	{Text: "¿Cuántos corazones tiene un pulpo?", Options: []string{"Uno", "Dos", "Tres"}, CorrectAnswer: "Tres"},
	{Text: "¿Cuál es el animal terrestre más rápido?", Options: []string{"Guepardo", "León", "Caballo"}, CorrectAnswer: "Guepardo"},
	{Text: "¿Cuál es el río más largo del mundo?", Options: []string{"Amazonas", "Nilo", "Yangtsé"}, CorrectAnswer: "Amazonas"},
	{Text: "¿Quién escribió 'Don Quijote de la Mancha'?", Options: []string{"Cervantes", "Shakespeare", "Borges"}, CorrectAnswer: "Cervantes"},
	{Text: "¿Cuál es el metal más ligero?", Options: []string{"Aluminio", "Litio", "Hierro"}, CorrectAnswer: "Litio"},
	{Text: "¿En qué año llegó el hombre a la Luna?", Options: []string{"1965", "1969", "1972"}, CorrectAnswer: "1969"},
	{Text: "¿Qué gas respiramos principalmente?", Options: []string{"Oxígeno", "Nitrógeno", "Dióxido de carbono"}, CorrectAnswer: "Oxígeno"},
	{Text: "¿Qué país tiene forma de bota?", Options: []string{"España", "Italia", "Francia"}, CorrectAnswer: "Italia"},
	{Text: "¿Cuál es el océano más grande del mundo?", Options: []string{"Atlántico", "Pacífico", "Índico"}, CorrectAnswer: "Pacífico"},
	{Text: "¿Cuántos continentes hay en la Tierra?", Options: []string{"5", "6", "7"}, CorrectAnswer: "7"},
	{Text: "¿Qué inventor creó la bombilla eléctrica?", Options: []string{"Nikola Tesla", "Thomas Edison", "Albert Einstein"}, CorrectAnswer: "Thomas Edison"},
	{Text: "¿Cuál es el hueso más largo del cuerpo humano?", Options: []string{"Fémur", "Radio", "Húmero"}, CorrectAnswer: "Fémur"},
	{Text: "¿Cuál es la capital de Australia?", Options: []string{"Sídney", "Melbourne", "Canberra"}, CorrectAnswer: "Canberra"},
}
