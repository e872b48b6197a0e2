package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// AgentRepository handles persistence for agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	// List returns all agents in creation order with their live open-ticket counts.
	List(ctx context.Context) ([]domain.Agent, error)
	// GetByTicketID returns the agent currently linked to the ticket.
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Agent, error)
}

// open_tickets counts IN_PROGRESS assignments so viewers can derive availability.
const agentSelect = `
        SELECT a.id, a.first_name, a.last_name, a.email, a.password_hash, a.agent_type, a.created_at,
               (SELECT COUNT(*) FROM tickets t WHERE t.agent_id = a.id AND t.status = 'IN_PROGRESS') AS open_tickets
        FROM agents a`

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (first_name, last_name, email, password_hash, agent_type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		agent.FirstName,
		agent.LastName,
		agent.Email,
		agent.PasswordHash,
		agent.Type,
	).Scan(&agent.ID, &agent.CreatedAt)
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	const query = `
        UPDATE agents SET first_name=$1, last_name=$2, email=$3, password_hash=$4, agent_type=$5
        WHERE id=$6`
	return execOne(ctx, r.pool, query,
		agent.FirstName,
		agent.LastName,
		agent.Email,
		agent.PasswordHash,
		agent.Type,
		agent.ID,
	)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return r.fetchSingle(ctx, agentSelect+` WHERE a.id=$1`, id)
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return r.fetchSingle(ctx, agentSelect+` WHERE a.email=$1`, email)
}

func (r *agentRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Agent, error) {
	return r.fetchSingle(ctx, agentSelect+` INNER JOIN tickets tk ON tk.agent_id = a.id WHERE tk.id=$1`, ticketID)
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, agentSelect+` ORDER BY a.created_at ASC, a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Agent, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	agents, err := scanAgents(rows)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &agents[0], nil
}

func scanAgents(rows pgx.Rows) ([]domain.Agent, error) {
	var result []domain.Agent
	for rows.Next() {
		var (
			agent domain.Agent
			open  int64
		)
		if err := rows.Scan(
			&agent.ID,
			&agent.FirstName,
			&agent.LastName,
			&agent.Email,
			&agent.PasswordHash,
			&agent.Type,
			&agent.CreatedAt,
			&open,
		); err != nil {
			return nil, err
		}
		agent.OpenTickets = int(open)
		result = append(result, agent)
	}
	return result, rows.Err()
}
