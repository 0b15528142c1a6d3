package service

import (
	"context"
	"time"

	"transit-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates dossier activity and liquidated tax totals over
// the given time range
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Dossier counts by status
	var total, open, liquidated int64
	s.db.WithContext(ctx).Model(&model.Dossier{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Count(&total)
	s.db.WithContext(ctx).Model(&model.Dossier{}).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.DossierStatusOpen, startDate, endDate).
		Count(&open)
	s.db.WithContext(ctx).Model(&model.Dossier{}).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.DossierStatusLiquidated, startDate, endDate).
		Count(&liquidated)
	response.TotalDossiers = int(total)
	response.OpenDossiers = int(open)
	response.LiquidatedDossiers = int(liquidated)

	// Total liquidated tax; excluded lines carry a zero amount but are
	// filtered anyway so the sum only reflects payable taxes
	var totalTax struct {
		Value decimal.Decimal
	}
	s.db.WithContext(ctx).Table("tax_liquidations").
		Select("COALESCE(SUM(amount), 0) as value").
		Where("excluded = false AND created_at >= ? AND created_at <= ?", startDate, endDate).
		Scan(&totalTax)
	response.TotalLiquidatedTax = totalTax.Value.StringFixed(4)

	// Top tariff codes by article count, with their accumulated tax
	var rankings []struct {
		NTSCode      string
		Description  string
		ArticleCount int
		TotalTax     decimal.Decimal
	}
	s.db.WithContext(ctx).Table("articles").
		Select("articles.nts_code as nts_code, MAX(tariff_products.description) as description, COUNT(DISTINCT articles.id) as article_count, COALESCE(SUM(tax_liquidations.amount) FILTER (WHERE tax_liquidations.excluded = false), 0) as total_tax").
		Joins("LEFT JOIN tariff_products ON tariff_products.nts_code = articles.nts_code").
		Joins("LEFT JOIN tax_liquidations ON tax_liquidations.article_id = articles.id").
		Where("articles.nts_code <> '' AND articles.created_at >= ? AND articles.created_at <= ?", startDate, endDate).
		Group("articles.nts_code").
		Order("article_count DESC").
		Limit(5).
		Scan(&rankings)

	for _, r := range rankings {
		response.TopTariffCodes = append(response.TopTariffCodes, model.TariffRanking{
			NTSCode:       r.NTSCode,
			Description:   r.Description,
			ArticleCount:  r.ArticleCount,
			TotalTaxValue: r.TotalTax.StringFixed(4),
		})
	}

	return response, nil
}
