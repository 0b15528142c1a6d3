package model

import (
	"time"
)

// StatisticsResponse aggregates dossier activity and liquidation totals
type StatisticsResponse struct {
	TotalDossiers       int             `json:"total_dossiers"`
	OpenDossiers        int             `json:"open_dossiers"`
	LiquidatedDossiers  int             `json:"liquidated_dossiers"`
	TotalLiquidatedTax  string          `json:"total_liquidated_tax"` // Decimal string in reference currency
	TopTariffCodes      []TariffRanking `json:"top_tariff_codes"`
	TimeRangeStartDate  time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate    time.Time       `json:"time_range_end_date"`
}

// TariffRanking represents a ranked NTS code based on accumulated article counts
type TariffRanking struct {
	NTSCode       string `json:"nts_code"`
	Description   string `json:"description"`
	ArticleCount  int    `json:"article_count"`
	TotalTaxValue string `json:"total_tax_value"`
}
