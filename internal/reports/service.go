package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/campushub-erp/campushub/internal/fees"
	"github.com/campushub-erp/campushub/internal/money"
	"github.com/campushub-erp/campushub/internal/observability"
	"github.com/campushub-erp/campushub/internal/shared"
)

// FeeReader is the slice of the fees service the report engine needs.
type FeeReader interface {
	ListPayments(ctx context.Context, scope shared.Scope, f fees.Filter) ([]fees.FeePayment, error)
	ApplyHeadFilter(ctx context.Context, scope shared.Scope, f *fees.Filter, classifier fees.HeadClassifier, headID string) error
	ListCategories(ctx context.Context, scope shared.Scope) ([]fees.FeeCategory, error)
}

// Service runs fee reports.
type Service struct {
	fees     FeeReader
	cache    *Cache
	metrics  *observability.Metrics
	logger   *slog.Logger
	currency string
}

// NewService builds the report service. Cache and metrics may be nil.
func NewService(reader FeeReader, cache *Cache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fees: reader, cache: cache, metrics: metrics, logger: logger}
}

// SetCurrencySymbol installs the symbol prefixed to summary figures.
// Unset, summaries render bare amounts.
func (s *Service) SetCurrencySymbol(symbol string) {
	s.currency = symbol
}

// Run executes one report. The school scope is checked before any
// storage access; results are cached per school, mode and parameters.
func (s *Service) Run(ctx context.Context, scope shared.Scope, req Request) (rep *Report, err error) {
	defer func() { s.metrics.ObserveReportRun(req.Mode, err) }()

	if !scope.Valid() {
		return nil, shared.ErrSchoolScopeMissing
	}
	mode, ok := LookupMode(req.Mode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	if mode.SingleStudent && req.StudentID == "" {
		return nil, errors.New("reports: student_id is required for this report")
	}

	key, err := s.cache.BuildKey(ctx, "reports", scope.SchoolID, mode.Name, fingerprint(req))
	if err != nil {
		return nil, err
	}
	var out Report
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.build(ctx, scope, mode, req)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) build(ctx context.Context, scope shared.Scope, mode Mode, req Request) (*Report, error) {
	filter, err := s.buildFilter(ctx, scope, mode, req)
	if err != nil {
		return nil, err
	}

	// All lookups run in parallel; the first failure aborts the whole
	// report rather than rendering a partial table.
	var payments []fees.FeePayment
	var categories []fees.FeeCategory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.fees.ListPayments(gctx, scope, filter)
		return err
	})
	if mode.Shape == ShapeConsolidated {
		g.Go(func() error {
			var err error
			categories, err = s.fees.ListCategories(gctx, scope)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		Mode:        mode.Name,
		Title:       mode.Title,
		GeneratedAt: time.Now().UTC(),
	}
	switch mode.Shape {
	case ShapeLine:
		buildLineReport(rep, mode, payments)
	case ShapeStudent:
		buildStudentReport(rep, mode, payments)
	case ShapeHead:
		buildHeadReport(rep, mode, payments)
	case ShapeConsolidated:
		buildConsolidatedReport(rep, payments, categories)
	default:
		return nil, fmt.Errorf("reports: unhandled shape %q", mode.Shape)
	}

	if mode.Shape == ShapeLine && mode.WithConcessions {
		rep.Summary = lineSummary(payments, s.currency)
	}

	s.logger.Info("fee report generated",
		slog.String("school_id", scope.SchoolID),
		slog.String("mode", mode.Name),
		slog.Int("rows", len(rep.Rows)))
	return rep, nil
}

func (s *Service) buildFilter(ctx context.Context, scope shared.Scope, mode Mode, req Request) (fees.Filter, error) {
	f := fees.Filter{
		ClassID:             req.ClassID,
		StudentID:           req.StudentID,
		FeeCategoryID:       req.FeeCategoryID,
		FeeGroupID:          req.FeeGroupID,
		AcademicYearID:      req.AcademicYearID,
		Search:              req.Search,
		Statuses:            mode.Statuses,
		ExcludeInstallments: mode.ExcludeInstallments,
		RequireInstallment:  mode.RequireInstallment,
	}
	if mode.OnlineOnly {
		f.ExcludePaymentMode = "cash"
		f.PaymentMode = req.PaymentMode
	}
	switch mode.DateField {
	case DateFieldPaid:
		f.PaidFrom, f.PaidTo, f.PaidOn = req.From, req.To, req.Date
	default:
		f.DueFrom, f.DueTo = req.From, req.To
	}

	if mode.DefaultFirstCategory && f.FeeCategoryID == "" {
		categories, err := s.fees.ListCategories(ctx, scope)
		if err != nil {
			return fees.Filter{}, err
		}
		if len(categories) == 0 {
			f.MatchNone = true
		} else {
			sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
			f.FeeCategoryID = categories[0].ID
		}
	}

	if mode.UsesHeadClassifier {
		classifier := fees.HeadClassifier(req.Classifier)
		if classifier == "" {
			classifier = fees.ClassifierFeeType
		}
		if err := s.fees.ApplyHeadFilter(ctx, scope, &f, classifier, req.HeadID); err != nil {
			return fees.Filter{}, err
		}
	}
	return f, nil
}

func lineSummary(payments []fees.FeePayment, symbol string) map[string]string {
	collected := make([]decimal.Decimal, 0, len(payments))
	conceded := make([]decimal.Decimal, 0, len(payments))
	for _, p := range payments {
		collected = append(collected, p.PaidAmount)
		conceded = append(conceded, fees.TotalConcession(p))
	}
	return map[string]string{
		"total_collection": money.FormatWithCurrency(money.Sum(collected...), symbol, language.English),
		"total_concession": money.FormatWithCurrency(money.Sum(conceded...), symbol, language.English),
	}
}

func fingerprint(req Request) string {
	parts := []string{
		req.ClassID, req.StudentID, req.Classifier, req.HeadID,
		req.FeeCategoryID, req.FeeGroupID, req.AcademicYearID,
		req.PaymentMode, req.Search,
		stamp(req.From), stamp(req.To), stamp(req.Date),
	}
	return strings.Join(parts, "|")
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
