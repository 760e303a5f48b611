package queries_test

import (
	"testing"
	"time"

	"artfactory/internal/adapters/out/postgres"
	"artfactory/internal/adapters/out/postgres/machinerepo"
	"artfactory/internal/adapters/out/postgres/pgtest"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/model/product"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type QueriesIntegrationTestSuite struct {
	suite.Suite
	pg *pgtest.Database

	image *machine.Definition
	video *machine.Definition
}

func TestQueriesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(QueriesIntegrationTestSuite))
}

func (s *QueriesIntegrationTestSuite) SetupSuite() {
	s.pg = pgtest.Start(s.T().Context(), s.T())
}

func (s *QueriesIntegrationTestSuite) TearDownSuite() {
	s.pg.Stop(s.T())
}

func (s *QueriesIntegrationTestSuite) SetupTest() {
	s.pg.Truncate(s.T())
	s.image = s.addMachine("fal-flux-schnell", kernel.MediaTypeImage, "0.003")
	s.video = s.addMachine("fal-kling-video", kernel.MediaTypeVideo, "0.25")
}

func (s *QueriesIntegrationTestSuite) addMachine(slug string, mt kernel.MediaType, cost string) *machine.Definition {
	def, err := machine.NewDefinition(kernel.NewUUID(), machine.Attributes{
		Slug:       slug,
		Name:       slug,
		Provider:   machine.ProviderFal,
		Model:      "fal-ai/" + slug,
		MediaType:  mt,
		CostPerRun: decimal.RequireFromString(cost),
	}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(machinerepo.NewGormMachineRepository(s.pg.DB, nil).Add(s.T().Context(), def))
	return def
}

func (s *QueriesIntegrationTestSuite) addOrder(title, prompt string, createdAt time.Time, defs ...*machine.Definition) *order.Order {
	specs := make([]order.ItemSpec, 0, len(defs))
	for _, def := range defs {
		params, err := def.ResolveParameters(kernel.NewParameters(map[string]any{"prompt": prompt}))
		s.Require().NoError(err)
		specs = append(specs, order.ItemSpec{MachineID: def.ID(), Prompt: prompt, Parameters: params, Cost: def.CostPerRun()})
	}
	o, err := order.NewOrder(kernel.NewUUID(), title, prompt, "alice", specs, createdAt)
	s.Require().NoError(err)
	s.Require().NoError(postgres.NewGormUnitOfWorkFactory(s.pg.DB).Create().OrderRepository().Add(s.T().Context(), o))
	return o
}

// complete claims and completes item i of o, storing one product per url.
func (s *QueriesIntegrationTestSuite) complete(o *order.Order, i int, def *machine.Definition, urls ...string) []*product.Product {
	ctx := s.T().Context()
	uow := postgres.NewGormUnitOfWorkFactory(s.pg.DB).Create()
	s.Require().NoError(uow.Begin(ctx))

	it := o.Items()[i]
	now := time.Now()
	_, err := o.ClaimItem(it.ID(), "worker-1", now)
	s.Require().NoError(err)
	_, err = o.CompleteItem(it.ID(), "worker-1", now)
	s.Require().NoError(err)
	s.Require().NoError(uow.OrderRepository().Update(ctx, o))

	products := make([]*product.Product, 0, len(urls))
	for j, url := range urls {
		p, pErr := product.NewProduct(kernel.NewUUID(), product.Origin{
			OrderID:    o.ID(),
			ItemID:     it.ID(),
			MachineID:  def.ID(),
			Provider:   def.Provider().String(),
			Model:      def.Model(),
			Parameters: it.Parameters(),
		}, product.Media{Type: def.MediaType(), URL: url}, it.Prompt(), now.Add(time.Duration(j)*time.Millisecond))
		s.Require().NoError(pErr)
		s.Require().NoError(uow.ProductRepository().Add(ctx, p))
		products = append(products, p)
	}
	s.Require().NoError(uow.Commit(ctx))
	return products
}

func (s *QueriesIntegrationTestSuite) TestGetOrder_ReturnsItemsAndProducts() {
	ctx := s.T().Context()
	o := s.addOrder("Koi", "a koi pond", time.Now(), s.image, s.video)
	products := s.complete(o, 0, s.image, "https://cdn.example.com/1.png", "https://cdn.example.com/2.png")

	q, err := queries.NewGetOrderQuery(o.ID())
	s.Require().NoError(err)
	resp, err := queries.NewGetOrderQueryHandler(s.pg.DB).Handle(ctx, q)

	s.Require().NoError(err)
	s.Equal(o.ID(), resp.ID)
	s.Equal("Koi", resp.Title)
	s.Equal("processing", resp.Status)
	s.True(decimal.RequireFromString("0.253").Equal(resp.TotalCost))
	s.Require().Len(resp.Items, 2)
	s.Equal("completed", resp.Items[0].Status)
	s.Equal("fal-flux-schnell", resp.Items[0].MachineSlug)
	s.Equal("a koi pond", resp.Items[0].Parameters["prompt"])
	s.Equal([]kernel.UUID{products[0].ID(), products[1].ID()}, resp.Items[0].ProductIDs)
	s.Equal("pending", resp.Items[1].Status)
	s.Empty(resp.Items[1].ProductIDs)
}

func (s *QueriesIntegrationTestSuite) TestGetOrder_NotFound() {
	q, err := queries.NewGetOrderQuery(kernel.NewUUID())
	s.Require().NoError(err)

	_, err = queries.NewGetOrderQueryHandler(s.pg.DB).Handle(s.T().Context(), q)

	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *QueriesIntegrationTestSuite) TestListOrders_CountsAndFilter() {
	ctx := s.T().Context()
	older := s.addOrder("Older", "a", time.Now().Add(-time.Hour), s.image, s.image)
	newer := s.addOrder("Newer", "b", time.Now(), s.video)
	s.complete(newer, 0, s.video, "https://cdn.example.com/v.mp4")

	q, err := queries.NewListOrdersQuery(nil, 0, 0)
	s.Require().NoError(err)
	resp, err := queries.NewListOrdersQueryHandler(s.pg.DB).Handle(ctx, q)

	s.Require().NoError(err)
	s.Equal(2, resp.Total)
	s.Require().Len(resp.Orders, 2)
	s.Equal(newer.ID(), resp.Orders[0].ID)
	s.Equal("completed", resp.Orders[0].Status)
	s.Equal(1, resp.Orders[0].Completed)
	s.Equal(older.ID(), resp.Orders[1].ID)
	s.Equal(2, resp.Orders[1].Items)
	s.Equal(2, resp.Orders[1].Pending)
	s.True(decimal.RequireFromString("0.006").Equal(resp.Orders[1].TotalCost))

	pending := order.Pending
	q, err = queries.NewListOrdersQuery(&pending, 1, 0)
	s.Require().NoError(err)
	resp, err = queries.NewListOrdersQueryHandler(s.pg.DB).Handle(ctx, q)

	s.Require().NoError(err)
	s.Equal(1, resp.Total)
	s.Require().Len(resp.Orders, 1)
	s.Equal(older.ID(), resp.Orders[0].ID)
}

func (s *QueriesIntegrationTestSuite) TestListOrders_TotalPastLastPage() {
	s.addOrder("First", "a", time.Now().Add(-time.Minute), s.image)
	s.addOrder("Second", "b", time.Now(), s.video)

	q, err := queries.NewListOrdersQuery(nil, 10, 5)
	s.Require().NoError(err)
	resp, err := queries.NewListOrdersQueryHandler(s.pg.DB).Handle(s.T().Context(), q)

	s.Require().NoError(err)
	s.Equal(2, resp.Total)
	s.Empty(resp.Orders)
}

func (s *QueriesIntegrationTestSuite) TestListProducts_Filters() {
	ctx := s.T().Context()
	o := s.addOrder("Mixed", "koi pond at 100% zoom", time.Now(), s.image, s.video)
	images := s.complete(o, 0, s.image, "https://cdn.example.com/1.png", "https://cdn.example.com/2.png")
	videos := s.complete(o, 1, s.video, "https://cdn.example.com/1.mp4")

	uow := postgres.NewGormUnitOfWorkFactory(s.pg.DB).Create()
	s.Require().NoError(images[0].SetTags([]string{"sea", "koi"}))
	images[0].SetFavorite(true)
	s.Require().NoError(uow.ProductRepository().Update(ctx, images[0]))

	handler := queries.NewListProductsQueryHandler(s.pg.DB)
	list := func(filter queries.ProductFilter) queries.ListProductsQueryResponse {
		q, err := queries.NewListProductsQuery(filter)
		s.Require().NoError(err)
		resp, err := handler.Handle(ctx, q)
		s.Require().NoError(err)
		return resp
	}

	all := list(queries.ProductFilter{})
	s.Equal(3, all.Total)
	s.Equal(videos[0].ID(), all.Products[0].ID, "newest first")

	video := kernel.MediaTypeVideo
	s.Equal(1, list(queries.ProductFilter{MediaType: &video}).Total)
	s.Equal(2, list(queries.ProductFilter{MachineSlug: "fal-flux-schnell"}).Total)

	fav := true
	favs := list(queries.ProductFilter{Favorite: &fav})
	s.Require().Len(favs.Products, 1)
	s.Equal([]string{"sea", "koi"}, favs.Products[0].Tags)
	s.Equal("fal-flux-schnell", favs.Products[0].MachineSlug)
	s.Equal("koi pond at 100% zoom", favs.Products[0].Prompt)

	s.Equal(1, list(queries.ProductFilter{Tag: "SEA"}).Total)
	s.Equal(3, list(queries.ProductFilter{Search: "100%"}).Total)
	s.Equal(0, list(queries.ProductFilter{Search: "100_"}).Total)

	orderID := o.ID()
	page := list(queries.ProductFilter{OrderID: &orderID, Limit: 2, Offset: 2})
	s.Equal(3, page.Total)
	s.Len(page.Products, 1)

	past := list(queries.ProductFilter{OrderID: &orderID, Limit: 2, Offset: 3})
	s.Equal(3, past.Total)
	s.Empty(past.Products)
}

func (s *QueriesIntegrationTestSuite) TestGetProduct() {
	ctx := s.T().Context()
	o := s.addOrder("One", "lantern", time.Now(), s.image)
	p := s.complete(o, 0, s.image, "https://cdn.example.com/l.png")[0]

	q, err := queries.NewGetProductQuery(p.ID())
	s.Require().NoError(err)
	view, err := queries.NewGetProductQueryHandler(s.pg.DB).Handle(ctx, q)

	s.Require().NoError(err)
	s.Equal(p.ID(), view.ID)
	s.Equal(o.ID(), view.OrderID)
	s.Equal("image", view.MediaType)
	s.Equal("lantern", view.Title)

	q, err = queries.NewGetProductQuery(kernel.NewUUID())
	s.Require().NoError(err)
	_, err = queries.NewGetProductQueryHandler(s.pg.DB).Handle(ctx, q)
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *QueriesIntegrationTestSuite) TestListMachines_ActiveOnly() {
	ctx := s.T().Context()
	repo := machinerepo.NewGormMachineRepository(s.pg.DB, nil)
	s.video.Deactivate(time.Now())
	s.Require().NoError(repo.Update(ctx, s.video))

	q, err := queries.NewListMachinesQuery(false)
	s.Require().NoError(err)
	all, err := queries.NewListMachinesQueryHandler(s.pg.DB).Handle(ctx, q)
	s.Require().NoError(err)
	s.Len(all.Machines, 2)

	q, err = queries.NewListMachinesQuery(true)
	s.Require().NoError(err)
	active, err := queries.NewListMachinesQueryHandler(s.pg.DB).Handle(ctx, q)
	s.Require().NoError(err)
	s.Require().Len(active.Machines, 1)
	s.Equal("fal-flux-schnell", active.Machines[0].Slug)
	s.True(decimal.RequireFromString("0.003").Equal(active.Machines[0].CostPerRun))
	s.Empty(active.Machines[0].Rules)
}
