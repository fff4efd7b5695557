package domain

// BankrollState es el estado del capital: total, comprometido y exposición
// por categoría. Instancia única en el proceso, propiedad del bankroll
// manager; cualquier lectura externa recibe una copia.
type BankrollState struct {
	TotalCapital float64
	Committed    float64 // suma de stakes de apuestas abiertas
	PerCategory  map[Category]float64
}

// Available devuelve el capital no comprometido.
func (s BankrollState) Available() float64 {
	return s.TotalCapital - s.Committed
}

// ExposurePct devuelve la fracción del capital actualmente comprometida.
func (s BankrollState) ExposurePct() float64 {
	if s.TotalCapital <= 0 {
		return 0
	}
	return s.Committed / s.TotalCapital
}

// Clone devuelve una copia profunda para consultas de estado.
func (s BankrollState) Clone() BankrollState {
	out := s
	out.PerCategory = make(map[Category]float64, len(s.PerCategory))
	for k, v := range s.PerCategory {
		out.PerCategory[k] = v
	}
	return out
}

// SizingDecision es el veredicto del bankroll manager sobre un candidato.
// Un rechazo es una decisión normal, no un error.
type SizingDecision struct {
	Approved  bool
	Stake     float64
	KellyUsed float64 // fracción de Kelly aplicada tras el multiplicador
	Reason    string  // motivo del rechazo, o resumen del sizing si aprobado
}
