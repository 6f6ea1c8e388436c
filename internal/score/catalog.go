package score

// CriticalDocument is one entry of the fixed disclosure catalog. WeightCenti
// is the OC4IDS importance weight in hundredths; the catalog sums to 100.
// Scores are computed on the integer weights so that a published weight of
// exactly 0.65 rounds to 6, not 7.
type CriticalDocument struct {
	Type        string
	Name        string
	WeightCenti int
}

// Catalog order is meaningful: missing documents are reported in this order.
var Catalog = []CriticalDocument{
	{Type: "signedContract", Name: "Contrato Assinado", WeightCenti: 35},
	{Type: "feasibilityStudy", Name: "Estudo de Viabilidade", WeightCenti: 20},
	{Type: "progressReport", Name: "Relatório de Progresso", WeightCenti: 25},
	{Type: "completionReport", Name: "Relatório de Conclusão", WeightCenti: 20},
}

// Weight returns the catalog weight for a document type, 0 for non-critical
// types. Used to fill the weight column of the document-presence table.
func Weight(docType string) float64 {
	for _, d := range Catalog {
		if d.Type == docType {
			return float64(d.WeightCenti) / 100
		}
	}
	return 0
}
