// README: Prompt rendering for plan generation and conversational refinement.
package planner

import (
	"fmt"
	"strconv"
	"strings"

	"voyage/internal/modules/itinerary"
)

const (
	// UnspecifiedDate stands in for a missing start date.
	UnspecifiedDate = "Non spécifiée"

	// BudgetCheckLead opens the budget-sufficiency instruction of the generation prompt.
	BudgetCheckLead = "IMPORTANT : avant toute chose, vérifie si le budget"

	PlanStartMarker = "--- DÉBUT DU PLAN ---"
	PlanEndMarker   = "--- FIN DU PLAN ---"
)

// BuildGenerationPrompt renders a trip specification into the initial planning request.
// It is deterministic and performs no validation.
func BuildGenerationPrompt(spec itinerary.TripSpec) string {
	budget := formatAmount(spec.Budget)
	start := UnspecifiedDate
	if spec.StartDate != nil {
		start = spec.StartDate.Format(itinerary.DateLayout)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Crée un plan de voyage détaillé avec les informations suivantes :\n\n")
	fmt.Fprintf(&b, "- Ville de départ : %s\n", spec.Departure)
	fmt.Fprintf(&b, "- Destination : %s\n", spec.Destination)
	fmt.Fprintf(&b, "- Durée : %d jours\n", spec.Duration)
	fmt.Fprintf(&b, "- Date de départ : %s\n", start)
	fmt.Fprintf(&b, "- Budget total : %s€\n", budget)
	fmt.Fprintf(&b, "- Nombre de voyageurs : %d\n", spec.Travelers)
	fmt.Fprintf(&b, "- Centres d'intérêt : %s\n\n", spec.Interests)

	fmt.Fprintf(&b, "%s de %s€ est réaliste pour %d voyageur(s) pendant %d jours à %s, transport depuis %s compris. "+
		"S'il est insuffisant, commence ta réponse par une section « Budget insuffisant » qui explique pourquoi "+
		"et indique le budget minimum recommandé, puis propose malgré tout le meilleur plan possible avec ce budget.\n\n",
		BudgetCheckLead, budget, spec.Travelers, spec.Duration, spec.Destination, spec.Departure)

	b.WriteString("Structure ta réponse exactement ainsi :\n")
	b.WriteString("1. Résumé du voyage (destination, dates, transport aller-retour depuis la ville de départ)\n")
	b.WriteString("2. Itinéraire jour par jour (Jour 1, Jour 2, ...) avec pour chaque jour les sections Matin, Après-midi et Soir\n")
	b.WriteString("3. Estimation des coûts par catégorie : Transport, Logement, Activités, Nourriture\n")
	b.WriteString("4. Conseils pratiques\n")
	return b.String()
}

// BuildRefinementPrompt embeds the current plan between markers with the user's
// request and the editing rules, including the update-line format.
func BuildRefinementPrompt(currentPlan, userMessage string) string {
	var b strings.Builder
	b.WriteString("CONTEXTE ACTUEL : voici le plan de voyage en cours. Il fait foi.\n\n")
	b.WriteString(PlanStartMarker + "\n")
	b.WriteString(currentPlan)
	b.WriteString("\n" + PlanEndMarker + "\n\n")
	fmt.Fprintf(&b, "DEMANDE DE L'UTILISATEUR : %s\n\n", userMessage)

	b.WriteString("INSTRUCTIONS :\n")
	b.WriteString("1. Si la demande modifie le voyage, renvoie le plan COMPLET régénéré, jamais seulement les différences.\n")
	b.WriteString("2. Commence alors par une courte note « Modifications : ... » décrivant ce qui a changé.\n")
	b.WriteString("3. Si l'utilisateur choisit parmi des options proposées (option A, B ou C...), supprime les options non retenues " +
		"et intègre le choix dans la section concernée du plan.\n")
	b.WriteString("4. Si un paramètre principal change (budget, destination, durée, date de départ, nombre de voyageurs) :\n")
	b.WriteString("   a. mets à jour chaque mention de ce paramètre dans le plan ;\n")
	b.WriteString("   b. supprime toute mention de l'ancienne valeur ;\n")
	b.WriteString("   c. supprime les paragraphes devenus obsolètes liés à l'ancienne valeur (par exemple un avertissement de budget insuffisant) ;\n")
	fmt.Fprintf(&b, "   d. termine ta réponse par une seule ligne listant uniquement les paramètres modifiés, au format exact :\n      %s{\"budget\": 2500, \"destination\": \"Paris\"}%s\n",
		updatesOpen+" ", updatesClose)
	b.WriteString("      Clés autorisées : budget (nombre), destination (texte), duration (nombre de jours), " +
		"startDate (AAAA-MM-JJ), travelers (nombre).\n")
	b.WriteString("5. Si la demande est une simple question sur le plan, réponds directement sans régénérer le plan.\n")
	b.WriteString("6. Si la demande est impossible ou irréaliste, explique pourquoi au lieu de produire un plan.\n")
	return b.String()
}

// GenerationSummary is the short user turn recorded for a generation request,
// standing in for the full templated prompt in the conversation log.
func GenerationSummary(spec itinerary.TripSpec) string {
	s := fmt.Sprintf("Plan : %s → %s, %d jours, %d voyageur(s), budget %s€",
		spec.Departure, spec.Destination, spec.Duration, spec.Travelers, formatAmount(spec.Budget))
	if spec.StartDate != nil {
		s += ", départ le " + spec.StartDate.Format(itinerary.DateLayout)
	}
	return s
}

// formatAmount renders a budget without trailing zeros (200, 2500.5).
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
