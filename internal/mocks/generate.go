package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/history --output domain/history --outpkg historymock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DiscoveryProvider --dir ../usecase --output ../usecase --inpackage --testonly
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name EnrichmentProvider --dir ../usecase --output ../usecase --inpackage --testonly
