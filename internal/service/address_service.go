package service

import (
	"context"
	"time"

	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/cache"
	"vault-bridge/pkg/derivation"
)

const addressCachePrefix = "address:"

type addressService struct {
	deriver     *derivation.Deriver
	authorities *authority.Deriver
	cache       cache.Cache
	ttl         time.Duration
}

// NewAddressService 派生结果只依赖配置, 可以长期缓存
func NewAddressService(deriver *derivation.Deriver, authorities *authority.Deriver, c cache.Cache, ttl time.Duration) AddressService {
	if c == nil {
		c = cache.NewMemoryCache(ttl, 2*ttl)
	}
	return &addressService{deriver: deriver, authorities: authorities, cache: c, ttl: ttl}
}

func (s *addressService) DepositAddress(ctx context.Context, user authority.PublicKey) (*AddressInfo, error) {
	return cache.GetOrLoad(ctx, s.cache, addressCachePrefix+user.String(), s.ttl, func(context.Context) (*AddressInfo, error) {
		pda, err := s.authorities.VaultAuthority(user)
		if err != nil {
			return nil, err
		}
		addr, err := s.deriver.DepositAddress(user)
		if err != nil {
			return nil, err
		}
		return &AddressInfo{Address: addr, Requester: pda.String(), Path: user.String()}, nil
	})
}

func (s *addressService) VaultAddress(ctx context.Context) (*AddressInfo, error) {
	return cache.GetOrLoad(ctx, s.cache, addressCachePrefix+derivation.RootPath, s.ttl, func(context.Context) (*AddressInfo, error) {
		pda, err := s.authorities.GlobalVaultAuthority()
		if err != nil {
			return nil, err
		}
		addr, err := s.deriver.VaultAddress()
		if err != nil {
			return nil, err
		}
		return &AddressInfo{Address: addr, Requester: pda.String(), Path: derivation.RootPath}, nil
	})
}
