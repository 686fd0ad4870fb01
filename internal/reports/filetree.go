package reports

import "github.com/valuation-console/backend/internal/models"

// BuildFileTree groups reports into a year → bank → month → customer folder
// hierarchy. Grouping is by exact string equality; "2024" and "2024 " are
// different folders. The function is pure: same input, same tree.
func BuildFileTree(all []*models.ValuationReport) []models.FileNode {
	tree := []models.FileNode{}
	yearIdx := make(map[string]int)

	for _, report := range all {
		yi, ok := yearIdx[report.Year]
		if !ok {
			tree = append(tree, models.FileNode{
				ID:       "year-" + report.Year,
				Name:     report.Year,
				Type:     "folder",
				Children: []models.FileNode{},
			})
			yi = len(tree) - 1
			yearIdx[report.Year] = yi
		}
		yearNode := &tree[yi]

		bankNode := findChild(yearNode, report.BankName)
		if bankNode == nil {
			yearNode.Children = append(yearNode.Children, models.FileNode{
				ID:       "bank-" + report.Year + "-" + report.BankName,
				Name:     report.BankName,
				Type:     "folder",
				Children: []models.FileNode{},
			})
			bankNode = &yearNode.Children[len(yearNode.Children)-1]
		}

		monthNode := findChild(bankNode, report.Month)
		if monthNode == nil {
			bankNode.Children = append(bankNode.Children, models.FileNode{
				ID:       "month-" + report.Year + "-" + report.BankName + "-" + report.Month,
				Name:     report.Month,
				Type:     "folder",
				Children: []models.FileNode{},
			})
			monthNode = &bankNode.Children[len(bankNode.Children)-1]
		}

		customer := models.FileNode{
			ID:       "customer-" + report.ID,
			Name:     report.CustomerName,
			Type:     "folder",
			Children: make([]models.FileNode, 0, len(report.Files)),
		}
		for _, file := range report.Files {
			customer.Children = append(customer.Children, models.FileNode{
				ID:       file.ID,
				Name:     file.Name,
				Type:     "file",
				ReportID: report.ID,
				FileType: file.Type,
			})
		}
		monthNode.Children = append(monthNode.Children, customer)
	}

	return tree
}

func findChild(parent *models.FileNode, name string) *models.FileNode {
	for i := range parent.Children {
		if parent.Children[i].Name == name {
			return &parent.Children[i]
		}
	}
	return nil
}
